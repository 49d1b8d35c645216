package models

// Requests for outbreak HTTP endpoints. Defined in domain for consistency and reuse.

type PredictRequest struct {
	Disease   string `json:"disease" validate:"required"`
	Location  string `json:"location" validate:"required"`
	DaysAhead int    `json:"days_ahead" default:"7" validate:"gte=1,lte=30"`
}

type HistoryRequest struct {
	Disease  string `param:"disease" validate:"required"`
	Location string `param:"location" validate:"required"`
}

type AlertActionRequest struct {
	ID    string `param:"id" validate:"required"`
	Notes string `json:"notes" validate:"max=2000"`
}

type LogsRequest struct {
	Limit int `query:"limit" default:"100" validate:"gte=1,lte=1000"`
}
