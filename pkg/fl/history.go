package fl

import "time"

// ParticipantSummary is what the round history keeps about one participant's
// contribution. Parameter values are not retained.
type ParticipantSummary struct {
	ParticipantID string             `json:"participant_id"`
	SampleCount   uint64             `json:"sample_count"`
	FitMetrics    map[string]float64 `json:"fit_metrics,omitempty"`
	Evaluation    *EvaluationResult  `json:"evaluation,omitempty"`
}

// RoundRecord is the archived form of a Round. Reason is set only for a
// round that ended the session without producing an aggregate.
type RoundRecord struct {
	SessionID       string               `json:"session_id"`
	Index           int                  `json:"index"`
	Attempts        int                  `json:"attempts"`
	Reason          string               `json:"reason,omitempty"`
	ParameterDigest string               `json:"parameter_digest"`
	Participants    []ParticipantSummary `json:"participants"`
	Failures        []Failure            `json:"failures,omitempty"`
	Evaluation      *Evaluation          `json:"evaluation,omitempty"`
	StartedAt       time.Time            `json:"started_at"`
	CompletedAt     time.Time            `json:"completed_at"`
}

type RoundPage struct {
	Offset uint64        `json:"offset"`
	Limit  uint64        `json:"limit"`
	Total  uint64        `json:"total"`
	Rounds []RoundRecord `json:"rounds"`
}

// Record summarises r for the history. aggregated is the parameter set the
// round produced.
func (r Round) Record(sessionID string, aggregated ParameterSet) RoundRecord {
	evals := make(map[string]EvaluationResult, len(r.Evaluations))
	for _, e := range r.Evaluations {
		evals[e.ParticipantID] = e
	}

	rec := RoundRecord{
		SessionID:       sessionID,
		Index:           r.Index,
		Attempts:        r.Attempt,
		ParameterDigest: aggregated.Digest(),
		Participants:    make([]ParticipantSummary, 0, len(r.Updates)),
		Failures:        r.Failures,
		StartedAt:       r.StartedAt,
		CompletedAt:     r.CompletedAt,
	}
	for _, u := range r.Updates {
		s := ParticipantSummary{
			ParticipantID: u.ParticipantID,
			SampleCount:   u.SampleCount,
			FitMetrics:    u.Metrics,
		}
		if e, ok := evals[u.ParticipantID]; ok {
			s.Evaluation = &e
		}
		rec.Participants = append(rec.Participants, s)
	}
	if ev, err := AggregateEvaluations(r.Evaluations); err == nil {
		rec.Evaluation = &ev
	}

	return rec
}
