package jobs

import (
	"context"
	"log"
	"time"

	"welcomebook-credits/internal/services"
)

// ConsumptionJob periodically runs the credit-drain sweep
type ConsumptionJob struct {
	consumption *services.ConsumptionService
	interval    time.Duration
	stopChan    chan struct{}
}

// NewConsumptionJob creates a new consumption sweep job
func NewConsumptionJob(consumption *services.ConsumptionService, interval time.Duration) *ConsumptionJob {
	return &ConsumptionJob{
		consumption: consumption,
		interval:    interval,
		stopChan:    make(chan struct{}),
	}
}

// Start begins the sweep loop
func (cj *ConsumptionJob) Start() {
	log.Printf("[ConsumptionJob] Starting consumption sweep job (interval: %v)", cj.interval)

	ticker := time.NewTicker(cj.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			cj.consumption.Tick(context.Background(), time.Now())
		case <-cj.stopChan:
			log.Println("[ConsumptionJob] Stopping consumption sweep job")
			return
		}
	}
}

// Stop stops the sweep loop
func (cj *ConsumptionJob) Stop() {
	close(cj.stopChan)
}
