package variant

// ResultRow is the annotated output for one input mutation.
type ResultRow struct {
	Gene         string   `json:"gene" yaml:"gene"`
	Position     string   `json:"position" yaml:"position"`
	Mutation     string   `json:"mutation" yaml:"mutation"`
	RSID         string   `json:"rsid" yaml:"rsid"`
	Pathogenic   *bool    `json:"pathogenic" yaml:"pathogenic"`
	Score        float64  `json:"score" yaml:"score"`
	Verdict      string   `json:"verdict,omitempty" yaml:"verdict,omitempty"`
	Source       string   `json:"source,omitempty" yaml:"source,omitempty"`
	Accession    string   `json:"accession,omitempty" yaml:"accession,omitempty"`
	Significance string   `json:"significance,omitempty" yaml:"significance,omitempty"`
	Error        string   `json:"error,omitempty" yaml:"error,omitempty"`
	Input        Mutation `json:"-" yaml:"-"`
}

// NewResultRow fills the identifying columns of a row from the mutation.
func NewResultRow(m Mutation) ResultRow {
	return ResultRow{
		Gene:     m.Gene,
		Position: m.PositionLabel(),
		Mutation: m.MutationLabel(),
		RSID:     m.DisplayRSID(),
		Input:    m,
	}
}

// Bool returns a pointer to v, for building tri-state pathogenic values.
func Bool(v bool) *bool {
	return &v
}
