// pkg/registry/schema.go
package registry

// Header layout shared by every partition. The first ten columns are the
// basic applicant fields; team-specific question columns follow at
// positions 11+.
var BasicHeaders = []string{
	"Timestamp",
	"Name",
	"USN",
	"College Email",
	"Personal Email",
	"Phone",
	"Department",
	"Semester",
	"Other Clubs",
	"Team",
}

const (
	// IdentifierColumn is the zero-based index of the USN column. It is the
	// same in every partition, which is what lets the uniqueness scan read a
	// single configured column everywhere.
	IdentifierColumn = 2

	// HeaderRowIndex is the one-based row every partition reserves for its
	// header. FirstDataRow is where application records start.
	HeaderRowIndex = 1
	FirstDataRow   = 2
)

// Question is one team-specific form question: the payload key it arrives
// under and the column header it is stored beneath.
type Question struct {
	Key    string `json:"key"`
	Header string `json:"header"`
}

// TeamDescriptor declares one recruitment track: its stable slug, the
// display name used as the store partition name, and its question columns.
type TeamDescriptor struct {
	Slug        string     `json:"slug"`
	DisplayName string     `json:"displayName"`
	Questions   []Question `json:"questions"`
}

// Headers returns the full ordered column list for the team's partition.
func (d *TeamDescriptor) Headers() []string {
	headers := make([]string, 0, len(BasicHeaders)+len(d.Questions))
	headers = append(headers, BasicHeaders...)
	for _, q := range d.Questions {
		headers = append(headers, q.Header)
	}
	return headers
}

// AnswersKey returns the payload section the team's answers arrive under,
// e.g. "technicalDetails" for slug "technical".
func (d *TeamDescriptor) AnswersKey() string {
	return d.Slug + "Details"
}

// teamFile is the on-disk shape accepted by Load.
type teamFile struct {
	Version string           `json:"version"`
	Teams   []TeamDescriptor `json:"teams"`
}
