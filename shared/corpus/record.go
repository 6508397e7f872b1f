package corpus

// Well-known columns of the monthly paper CSVs
const (
	ColumnPaperID     = "paper_id"
	ColumnURL         = "url"
	ColumnTitle       = "og_title"
	ColumnCategory    = "category"
	ColumnSubcategory = "subcategory"
	ColumnSubmittedOn = "submitted_on"
	ColumnAbstract    = "abstract"
	ColumnScrapedAt   = "scraped_at"
)

// Record is one paper row. Columns that the row's source file did not have
// are missing, which is distinct from present-but-empty.
type Record struct {
	Source string
	values map[string]string
}

// NewRecord builds a record from column values. A nil map yields a record
// with every column missing.
func NewRecord(source string, values map[string]string) Record {
	copied := make(map[string]string, len(values))
	for k, v := range values {
		copied[k] = v
	}
	return Record{Source: source, values: copied}
}

// Get returns the column value and whether the column is present
func (r Record) Get(column string) (string, bool) {
	v, ok := r.values[column]
	return v, ok
}

// Value returns the column value, or "" when missing
func (r Record) Value(column string) string {
	return r.values[column]
}

// Has reports whether the column is present for this row
func (r Record) Has(column string) bool {
	_, ok := r.values[column]
	return ok
}

func (r Record) PaperID() string     { return r.values[ColumnPaperID] }
func (r Record) SubmittedOn() string { return r.values[ColumnSubmittedOn] }
func (r Record) Abstract() string    { return r.values[ColumnAbstract] }
func (r Record) Subcategory() string { return r.values[ColumnSubcategory] }

// FileStat records how many rows a source file contributed
type FileStat struct {
	Name string `json:"name"`
	Rows int    `json:"rows"`
}

// Corpus is the in-memory union of all loaded CSV files
type Corpus struct {
	Columns []string
	Records []Record
	Files   []FileStat
}

// Len returns the number of rows
func (c *Corpus) Len() int {
	if c == nil {
		return 0
	}
	return len(c.Records)
}

// HasColumn reports whether any loaded file declared the column
func (c *Corpus) HasColumn(column string) bool {
	for _, col := range c.Columns {
		if col == column {
			return true
		}
	}
	return false
}
