package muhimbi

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
)

// Poll waits for taskID to finish. There is no bound on the number of
// iterations; ctx is the only way to give up. An unparseable status answer
// is logged and polled again.
func (c *Client) Poll(ctx context.Context, taskID string) (*Result, error) {
	taskID = strings.TrimSpace(taskID)
	if taskID == "" {
		return nil, errors.New("muhimbi: task id is required")
	}

	query := url.Values{}
	query.Set("task_id", taskID)

	for polls := 0; ; {
		if err := sleepContext(ctx, c.pollInterval); err != nil {
			return nil, &CancelledError{TaskID: taskID, Polls: polls, Err: err}
		}
		polls++

		raw, err := c.do(ctx, actionTaskPath, http.MethodGet, actionTaskPath, query, nil)
		if err != nil {
			var cancelled *CancelledError
			if errors.As(err, &cancelled) {
				cancelled.TaskID = taskID
				cancelled.Polls = polls
			}
			return nil, err
		}

		resp, parseErr := parseResponse(raw)
		switch Classify(resp) {
		case OutcomeUnparseable:
			log.Warn().Err(parseErr).Str("task_id", taskID).Int("polls", polls).Msg("Unparseable task status, polling again")
		case OutcomeInProgress:
			log.Debug().Str("task_id", taskID).Int("polls", polls).Str("result_code", resp.ResultCode).Msg("OCR task still running")
		default:
			log.Info().Str("task_id", taskID).Int("polls", polls).Str("result_code", resp.ResultCode).Msg("OCR task finished")
			return resp.result(actionTaskPath)
		}
	}
}

// sleepContext waits for d or until ctx is done, whichever comes first.
func sleepContext(ctx context.Context, d time.Duration) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
