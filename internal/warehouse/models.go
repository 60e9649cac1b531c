package warehouse

// DocumentRow is one row of the curated document mart.
type DocumentRow struct {
	ID     string
	Domain string
	Text   string
}
