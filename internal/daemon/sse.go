package daemon

import (
	"fmt"
	"net/http"

	"github.com/simpleflo/rdfusion/internal/orchestrator"
	"github.com/simpleflo/rdfusion/internal/workflow"
	"github.com/simpleflo/rdfusion/pkg/models"
)

// translateStep maps a workflow StepEvent onto the zero or more named SSE
// events spec §6 defines for that node. A node that doesn't correspond to
// any named event (e.g. the internal fan-out nodes) only ever contributes
// to the trailing "stage_timing"/"done" events.
func translateStep(bus *EventBus, ev orchestrator.StepEvent) {
	if ev.Err != nil {
		bus.Publish(EventError, ErrorData{Message: ev.Err.Error()})
		return
	}
	state := ev.State
	if state == nil {
		return
	}

	switch ev.Node {
	case workflow.NodeAnalyzer:
		bus.Publish(EventAnalysisComplete, AnalysisCompleteData{
			QueryType:    string(state.QueryType),
			QuerySubtype: string(state.QuerySubtype),
			EntityTypes:  state.EntityTypes,
			Keywords:     state.Keywords,
			IsCompound:   state.IsCompound,
		})
		if state.IsCompound {
			bus.Publish(EventSubqueryInfo, SubqueryInfoData{Count: len(state.SubQueries)})
		}
	case workflow.NodeVectorEnhancer:
		bus.Publish(EventVectorComplete, VectorCompleteData{ExpandedKeywords: state.Keywords})
	case workflow.NodeSQL:
		if state.SQLResult != nil {
			bus.Publish(EventSQLComplete, SQLCompleteData{
				Success:  state.SQLResult.Success,
				RowCount: state.SQLResult.RowCount,
			})
		}
		if len(state.MultiSQLResults) > 0 {
			bus.Publish(EventMultiSQLComplete, MultiSQLCompleteData{Entities: entityKeys(state.MultiSQLResults)})
		}
	case workflow.NodeRAG:
		bus.Publish(EventRAGComplete, RAGCompleteData{ResultCount: len(state.RAGResults)})
	case workflow.NodeSubQueries:
		bus.Publish(EventSubQueryComplete, SubQueryCompleteData{Count: len(state.SubQueryResults)})
	case workflow.NodeMerger:
		bus.Publish(EventPerspectiveSummary, PerspectiveSummaryData{
			ContextQuality: state.ContextQuality,
			SourceCount:    len(state.Sources),
		})
	}

	bus.Publish(EventStageTiming, StageTimingData{Timing: state.StageTiming})
}

func entityKeys(m map[string]*models.SQLResult) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	return keys
}

// handleChatStream handles POST /v1/chat/stream: it runs one turn and
// streams the named progress events spec §6 defines over SSE, finishing
// with a "done" or "error" event.
func (d *Daemon) handleChatStream(w http.ResponseWriter, r *http.Request) {
	req, ok := d.decodeChatRequest(w, r)
	if !ok {
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")

	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "streaming not supported", http.StatusInternalServerError)
		return
	}

	bus := NewEventBus(64)
	defer bus.Close()

	subID, eventCh := bus.Subscribe()
	defer bus.Unsubscribe(subID)

	bus.Publish(EventStatus, StatusData{Message: "started"})

	done := make(chan struct{})
	go func() {
		defer close(done)
		result, err := d.orch.ChatStream(r.Context(), req, func(ev orchestrator.StepEvent) {
			translateStep(bus, ev)
		})
		if err != nil {
			bus.Publish(EventError, ErrorData{Message: err.Error()})
			return
		}
		bus.Publish(EventDone, DoneData{Response: result.Response, ContextQuality: result.ContextQuality})
	}()

	ctx := r.Context()
	for {
		select {
		case <-ctx.Done():
			return
		case <-done:
			// Drain any already-queued events before closing out.
			drainEvents(w, flusher, eventCh)
			return
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, flusher, event); err != nil {
				return
			}
		}
	}
}

func drainEvents(w http.ResponseWriter, flusher http.Flusher, eventCh <-chan *Event) {
	for {
		select {
		case event, ok := <-eventCh:
			if !ok {
				return
			}
			if err := writeSSEEvent(w, flusher, event); err != nil {
				return
			}
		default:
			return
		}
	}
}

// writeSSEEvent writes a single SSE event to the response writer in the
// standard `id:`/`event:`/`data:` wire format.
func writeSSEEvent(w http.ResponseWriter, flusher http.Flusher, event *Event) error {
	if event.ID > 0 {
		if _, err := fmt.Fprintf(w, "id: %d\n", event.ID); err != nil {
			return err
		}
	}
	if _, err := fmt.Fprintf(w, "event: %s\n", event.Type); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", event.Data); err != nil {
		return err
	}
	flusher.Flush()
	return nil
}
