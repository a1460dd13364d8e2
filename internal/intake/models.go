// internal/intake/models.go
package intake

import (
	"encoding/json"
	"time"
)

// BasicDetails are the fields common to every submission.
type BasicDetails struct {
	Name          string `json:"name"`
	USN           string `json:"usn"`
	CollegeEmail  string `json:"collegeEmail"`
	PersonalEmail string `json:"personalEmail"`
	Phone         string `json:"phone"`
	Department    string `json:"department"`
	Semester      string `json:"semester"`
	OtherClubs    string `json:"otherClubs"`
	Team          string `json:"team"`
}

// SubmissionPayload is one inbound application. Besides basicDetails the
// body carries exactly one team-specific section named "<slug>Details"; the
// sections are kept as a map keyed by section name and resolved against the
// team descriptor at assembly time.
type SubmissionPayload struct {
	BasicDetails BasicDetails
	sections     map[string]map[string]string
}

func (p *SubmissionPayload) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	p.sections = make(map[string]map[string]string)
	for key, value := range raw {
		if key == "basicDetails" {
			if err := json.Unmarshal(value, &p.BasicDetails); err != nil {
				return err
			}
			continue
		}
		var answers map[string]string
		if err := json.Unmarshal(value, &answers); err != nil {
			// Non-object extras are ignored the same way unknown answer
			// keys are dropped.
			continue
		}
		p.sections[key] = answers
	}
	return nil
}

// AnswersFor returns the team-specific answers for the given section name,
// or an empty map when the section is absent.
func (p *SubmissionPayload) AnswersFor(sectionKey string) map[string]string {
	if answers, ok := p.sections[sectionKey]; ok {
		return answers
	}
	return map[string]string{}
}

// Result is returned for an accepted submission.
type Result struct {
	SubmissionID string    `json:"submissionId"`
	Team         string    `json:"team"`
	SubmittedAt  time.Time `json:"submittedAt"`
}
