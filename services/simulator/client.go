package main

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// SamplePayload is the body POSTed to the controller ingestion endpoint.
type SamplePayload struct {
	DeviceID   string    `json:"device_id"`
	Plant      string    `json:"plant"`
	Stage      string    `json:"stage"`
	TempC      float64   `json:"temperature_c"`
	Humidity   float64   `json:"humidity_pct"`
	PH         float64   `json:"ph"`
	PPM        float64   `json:"nutrient_ppm"`
	DistanceCM float64   `json:"light_distance_cm"`
	Timestamp  time.Time `json:"ts"`
}

// CommandPayload mirrors the actuator command in the controller response.
type CommandPayload struct {
	LightBrightness int    `json:"light_brightness"`
	LightMotor      string `json:"light_motor"`
	PHUp            bool   `json:"ph_up"`
	PHDown          bool   `json:"ph_down"`
	NutrientA       bool   `json:"nutrient_a"`
	NutrientB       bool   `json:"nutrient_b"`
}

// DecisionResponse is the controller's answer to one sample.
type DecisionResponse struct {
	SampleID string         `json:"sample_id"`
	Command  CommandPayload `json:"command"`
	Motor    string         `json:"motor"`
}

// PostSample submits one sample and returns the actuator decision.
func PostSample(ctx context.Context, client *http.Client, baseURL, token string, sample SamplePayload) (DecisionResponse, error) {
	body, err := json.Marshal(sample)
	if err != nil {
		return DecisionResponse{}, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, baseURL+"/v1/samples", bytes.NewReader(body))
	if err != nil {
		return DecisionResponse{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := client.Do(req)
	if err != nil {
		return DecisionResponse{}, fmt.Errorf("post sample: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return DecisionResponse{}, fmt.Errorf("unexpected status %s", resp.Status)
	}

	var decision DecisionResponse
	if err := json.NewDecoder(resp.Body).Decode(&decision); err != nil {
		return DecisionResponse{}, fmt.Errorf("decode decision: %w", err)
	}
	return decision, nil
}
