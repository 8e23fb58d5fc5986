package muhimbi

import (
	"encoding/json"
	"errors"
	"strings"
)

// Result codes reported by the service. Anything else is an error code.
const (
	ResultSuccess    = "Success"
	ResultAccepted   = "Accepted"
	ResultPending    = "Pending"
	ResultProcessing = "Processing"
)

const taskIDPrefix = "task_id="

var errNullResponse = errors.New("response body is null")

// OcrResponse is the body returned by both ocr_pdf and action_task.
type OcrResponse struct {
	ProcessedFileContent string `json:"processed_file_content"`
	BaseFileName         string `json:"base_file_name"`
	ResultCode           string `json:"result_code"`
	ResultDetails        string `json:"result_details"`
}

// Outcome classifies a response.
type Outcome int

const (
	OutcomeUnparseable Outcome = iota
	OutcomeInProgress
	OutcomeSuccess
	OutcomeFailed
)

func (o Outcome) String() string {
	switch o {
	case OutcomeInProgress:
		return "in_progress"
	case OutcomeSuccess:
		return "success"
	case OutcomeFailed:
		return "failed"
	default:
		return "unparseable"
	}
}

// Classify maps a response to its outcome. A nil response is unparseable.
// Success without content is Failed: the terminal state is malformed.
func Classify(resp *OcrResponse) Outcome {
	if resp == nil {
		return OutcomeUnparseable
	}
	switch resp.ResultCode {
	case ResultAccepted, ResultPending, ResultProcessing:
		return OutcomeInProgress
	case ResultSuccess:
		if resp.ProcessedFileContent == "" {
			return OutcomeFailed
		}
		return OutcomeSuccess
	default:
		return OutcomeFailed
	}
}

func parseResponse(raw []byte) (*OcrResponse, error) {
	var resp *OcrResponse
	if err := json.Unmarshal(raw, &resp); err != nil {
		return nil, err
	}
	if resp == nil {
		return nil, errNullResponse
	}
	return resp, nil
}

// TaskID extracts the task handle from an Accepted response.
func (r *OcrResponse) TaskID() string {
	return strings.TrimSpace(strings.TrimPrefix(r.ResultDetails, taskIDPrefix))
}

// result validates a terminal response and decodes its payload.
func (r *OcrResponse) result(op string) (*Result, error) {
	if r.ResultCode != ResultSuccess {
		return nil, &ResultError{Code: r.ResultCode, Details: r.ResultDetails}
	}
	if r.ProcessedFileContent == "" {
		return nil, &ResultError{Code: r.ResultCode, Details: r.ResultDetails, Reason: "processed file content is empty"}
	}
	content, err := DecodeContent(r.ProcessedFileContent)
	if err != nil {
		return nil, &ParseError{Op: op, Err: err}
	}
	return &Result{
		Content:       content,
		BaseFileName:  r.BaseFileName,
		ResultCode:    r.ResultCode,
		ResultDetails: r.ResultDetails,
	}, nil
}
