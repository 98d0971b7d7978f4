package model

type StartRequestBody struct {
	Key   KeySignature `json:"key"`
	Range NoteRange    `json:"range"`
}

type LatencyRequestBody struct {
	Enabled  *bool    `json:"enabled,omitempty"`
	OffsetMs *float64 `json:"offsetMs,omitempty"`
}

type ErrorResponse struct {
	Error string `json:"detail"`
}
