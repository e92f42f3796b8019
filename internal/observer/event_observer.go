package observer

import (
	"context"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// SelectionEvent represents a srcset service event
type SelectionEvent struct {
	EventType      EventType              `json:"event_type"`
	Timestamp      time.Time              `json:"timestamp"`
	ImageID        string                 `json:"image_id,omitempty"`
	VariantType    string                 `json:"variant_type,omitempty"`
	SelectedURL    string                 `json:"selected_url,omitempty"`
	Candidates     int                    `json:"candidates"`
	ProcessingTime time.Duration          `json:"processing_time"`
	ErrorMessage   string                 `json:"error_message,omitempty"`
	Metadata       map[string]interface{} `json:"metadata,omitempty"`
}

// EventType represents the type of srcset event
type EventType string

const (
	// SelectionCompleted when a best candidate was chosen
	SelectionCompleted EventType = "selection_completed"
	// SelectionEmpty when there was nothing to choose from
	SelectionEmpty EventType = "selection_empty"
	// DescriptorInvalid when parsing dropped at least one token
	DescriptorInvalid EventType = "descriptor_invalid"
	// CatalogReloaded when the size catalog was replaced
	CatalogReloaded EventType = "catalog_reloaded"
	// CatalogReloadFailed when the size catalog could not be replaced
	CatalogReloadFailed EventType = "catalog_reload_failed"
)

// Observer defines the interface for event observers
type Observer interface {
	OnEvent(ctx context.Context, event SelectionEvent)
	GetObserverName() string
}

// Subject defines the interface for event publishers
type Subject interface {
	Subscribe(observer Observer)
	Unsubscribe(observer Observer)
	NotifyObservers(ctx context.Context, event SelectionEvent)
}

// LoggingObserver logs srcset events
type LoggingObserver struct {
	logger *logrus.Logger
}

// NewLoggingObserver creates a new logging observer
func NewLoggingObserver(logger *logrus.Logger) Observer {
	return &LoggingObserver{
		logger: logger,
	}
}

// OnEvent handles srcset events by logging them
func (o *LoggingObserver) OnEvent(ctx context.Context, event SelectionEvent) {
	fields := logrus.Fields{
		"event_type":      event.EventType,
		"image_id":        event.ImageID,
		"variant_type":    event.VariantType,
		"candidates":      event.Candidates,
		"processing_time": event.ProcessingTime,
	}

	if event.SelectedURL != "" {
		fields["selected_url"] = event.SelectedURL
	}
	if event.ErrorMessage != "" {
		fields["error"] = event.ErrorMessage
	}
	for k, v := range event.Metadata {
		fields[k] = v
	}

	switch event.EventType {
	case SelectionCompleted:
		o.logger.WithFields(fields).Debug("Candidate selected")
	case SelectionEmpty:
		o.logger.WithFields(fields).Warn("No candidate available")
	case DescriptorInvalid:
		o.logger.WithFields(fields).Warn("Descriptor contained invalid tokens")
	case CatalogReloaded:
		o.logger.WithFields(fields).Info("Size catalog reloaded")
	case CatalogReloadFailed:
		o.logger.WithFields(fields).Error("Size catalog reload failed")
	default:
		o.logger.WithFields(fields).Info("Srcset event occurred")
	}
}

// GetObserverName returns the observer name
func (o *LoggingObserver) GetObserverName() string {
	return "logging_observer"
}

// MetricsObserver collects counters from srcset events
type MetricsObserver struct {
	mu                  sync.RWMutex
	selections          int64
	emptySelections     int64
	invalidDescriptors  int64
	catalogReloads      int64
	reloadFailures      int64
	totalProcessingTime time.Duration
	selectedByVariant   map[string]int64
}

// NewMetricsObserver creates a new metrics observer
func NewMetricsObserver() *MetricsObserver {
	return &MetricsObserver{
		selectedByVariant: make(map[string]int64),
	}
}

// OnEvent handles srcset events by collecting metrics
func (o *MetricsObserver) OnEvent(ctx context.Context, event SelectionEvent) {
	o.mu.Lock()
	defer o.mu.Unlock()

	switch event.EventType {
	case SelectionCompleted:
		o.selections++
		o.totalProcessingTime += event.ProcessingTime
		if event.VariantType != "" {
			o.selectedByVariant[event.VariantType]++
		}
	case SelectionEmpty:
		o.emptySelections++
	case DescriptorInvalid:
		o.invalidDescriptors++
	case CatalogReloaded:
		o.catalogReloads++
	case CatalogReloadFailed:
		o.reloadFailures++
	}
}

// GetObserverName returns the observer name
func (o *MetricsObserver) GetObserverName() string {
	return "metrics_observer"
}

// GetMetrics returns current metrics
func (o *MetricsObserver) GetMetrics() map[string]interface{} {
	o.mu.RLock()
	defer o.mu.RUnlock()

	avgProcessingTime := time.Duration(0)
	if o.selections > 0 {
		avgProcessingTime = o.totalProcessingTime / time.Duration(o.selections)
	}

	byVariant := make(map[string]int64, len(o.selectedByVariant))
	for k, v := range o.selectedByVariant {
		byVariant[k] = v
	}

	return map[string]interface{}{
		"selections":              o.selections,
		"empty_selections":        o.emptySelections,
		"invalid_descriptors":     o.invalidDescriptors,
		"catalog_reloads":         o.catalogReloads,
		"catalog_reload_failures": o.reloadFailures,
		"avg_processing_time":     avgProcessingTime.String(),
		"selected_by_variant":     byVariant,
	}
}

// EventPublisher implements the Subject interface
type EventPublisher struct {
	mu        sync.RWMutex
	observers []Observer
	wg        sync.WaitGroup
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher() *EventPublisher {
	return &EventPublisher{
		observers: make([]Observer, 0),
	}
}

// Subscribe adds an observer
func (p *EventPublisher) Subscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.observers = append(p.observers, observer)
}

// Unsubscribe removes an observer
func (p *EventPublisher) Unsubscribe(observer Observer) {
	p.mu.Lock()
	defer p.mu.Unlock()

	for i, obs := range p.observers {
		if obs.GetObserverName() == observer.GetObserverName() {
			p.observers = append(p.observers[:i], p.observers[i+1:]...)
			break
		}
	}
}

// NotifyObservers notifies all observers of an event
func (p *EventPublisher) NotifyObservers(ctx context.Context, event SelectionEvent) {
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}

	p.mu.RLock()
	observers := make([]Observer, len(p.observers))
	copy(observers, p.observers)
	p.mu.RUnlock()

	// Notify observers concurrently
	for _, observer := range observers {
		p.wg.Add(1)
		go func(obs Observer) {
			defer p.wg.Done()
			defer func() {
				if r := recover(); r != nil {
					// Log panic but don't crash the application
					logrus.WithField("observer", obs.GetObserverName()).
						WithField("panic", r).
						Error("Observer panicked while handling event")
				}
			}()
			obs.OnEvent(ctx, event)
		}(observer)
	}
}

// Wait blocks until every notification sent so far has been handled
func (p *EventPublisher) Wait() {
	p.wg.Wait()
}
