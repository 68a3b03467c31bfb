package handler

import (
	"bytes"
	"encoding/json"
	"time"
)

// errorResponse is the standard error envelope returned on all 4xx/5xx responses.
type errorResponse struct {
	Error string `json:"error"`
}

// flexString accepts a JSON string or number. Clients send price either way.
type flexString string

func (f *flexString) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	switch {
	case len(b) == 0 || string(b) == "null":
		*f = ""
		return nil
	case b[0] == '"':
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = flexString(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*f = flexString(n.String())
	return nil
}

// --- Request / Response types ---

type registerProductRequest struct {
	ProductID         string     `json:"productId"`
	Name              string     `json:"name"`
	BatchNumber       string     `json:"batchNumber"`
	ManufacturingDate string     `json:"manufacturingDate"`
	Description       string     `json:"description"`
	Price             flexString `json:"price" swaggertype:"string"`
}

type registerProductResponse struct {
	Message   string `json:"message"`
	ProductID string `json:"productId"`
	TxHash    string `json:"txHash"`
	Artifact  string `json:"artifact,omitempty"`
}

type transferRequest struct {
	ProductID  string `json:"productId"`
	ToUsername string `json:"toUsername"`
	ToUserType string `json:"toUserType"`
}

type transferResponse struct {
	Message string `json:"message"`
	TxHash  string `json:"txHash"`
	From    string `json:"from"`
	To      string `json:"to"`
}

type verifyResponse struct {
	Valid        bool   `json:"valid"`
	ProductID    string `json:"productId,omitempty"`
	Manufacturer string `json:"manufacturer,omitempty"`
	CurrentOwner string `json:"currentOwner,omitempty"`
	Message      string `json:"message,omitempty"`
}

type historyItem struct {
	Kind       string    `json:"kind"`
	Actor      string    `json:"actor"`
	Target     string    `json:"target,omitempty"`
	TxHash     string    `json:"txHash"`
	RecordedAt time.Time `json:"recordedAt"`
}

type historyResponse struct {
	ProductID string        `json:"productId"`
	Events    []historyItem `json:"events"`
}
