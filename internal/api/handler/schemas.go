package handler

import "github.com/fittrack/presence-system/internal/core/domain"

// positionRequest is a device GPS fix pushed in by the mobile shell.
// Latitude zero is a legal coordinate, so required is deliberately not used
// on the numeric fields; the range checks are the contract.
type positionRequest struct {
	Latitude  float64 `json:"latitude"  validate:"gte=-90,lte=90"`
	Longitude float64 `json:"longitude" validate:"gte=-180,lte=180"`
	Accuracy  float64 `json:"accuracy"  validate:"gte=0"`
}

type acceptedResponse struct {
	Message string `json:"message"`
}

type peersResponse struct {
	Peers []domain.PeerEntry `json:"peers"`
	Count int                `json:"count"`
}

type errorResponse struct {
	Error string `json:"error"`
}
