package validate

import (
	"encoding/json"
	"fmt"

	"github.com/telcobench/transit/internal/domain/model"
)

// Named checks produced by the trajectory validator.
const (
	CheckJSONValid        = "json_valid"
	CheckTrajectoryFields = "trajectory_fields"
	CheckNoErrors         = "no_errors"
)

// CheckTrajectories validates the raw trajectory bundle. A parse error fails
// the whole bundle; field and runtime-error problems are collected per record
// so the submitter gets the full picture in one pass.
func CheckTrajectories(raw json.RawMessage) ([]model.TrajectoryRecord, []model.Failure) {
	if len(raw) == 0 {
		return nil, []model.Failure{{Check: CheckJSONValid, Reason: "no trajectory records in submission"}}
	}

	var records []model.TrajectoryRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		return nil, []model.Failure{{
			Check:  CheckJSONValid,
			Reason: fmt.Sprintf("trajectory bundle is not valid JSON: %v", err),
		}}
	}
	if len(records) == 0 {
		return nil, []model.Failure{{Check: CheckJSONValid, Reason: "no trajectory records in submission"}}
	}

	var failures []model.Failure
	for i, rec := range records {
		if rec.SampleID == "" {
			failures = append(failures, model.Failure{
				Check:  CheckTrajectoryFields,
				Reason: fmt.Sprintf("record %d: missing sample_id", i),
			})
		}
		switch rec.Status {
		case model.StatusSuccess:
			// ok
		case model.StatusError:
			if rec.ErrorDetail == "" {
				failures = append(failures, model.Failure{
					Check:  CheckTrajectoryFields,
					Reason: fmt.Sprintf("record %d (%s): error status without error_detail", i, rec.SampleID),
				})
			} else {
				failures = append(failures, model.Failure{
					Check:  CheckNoErrors,
					Reason: fmt.Sprintf("%s: trajectory has error: %s", rec.SampleID, rec.ErrorDetail),
				})
			}
		case "":
			failures = append(failures, model.Failure{
				Check:  CheckTrajectoryFields,
				Reason: fmt.Sprintf("record %d (%s): missing completion status", i, rec.SampleID),
			})
		default:
			failures = append(failures, model.Failure{
				Check:  CheckTrajectoryFields,
				Reason: fmt.Sprintf("record %d (%s): unknown status %q", i, rec.SampleID, rec.Status),
			})
		}
	}

	return records, failures
}
