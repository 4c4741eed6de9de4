package engine

import (
	"context"
	"encoding/json"

	"wcnotify/internal/domain"
)

// handleRelayEvent is the single inbound relay listener. Each event is
// dispatched on its own goroutine: handlers for distinct topics interleave
// freely, and a slow handler never stalls the relay stream.
func (e *Engine) handleRelayEvent(ev domain.RelayEvent) {
	go e.dispatch(ev)
}

func (e *Engine) dispatch(ev domain.RelayEvent) {
	payload, err := e.deps.Crypto.Decode(ev.Topic, ev.Payload)
	if err != nil {
		e.logger.Warn().Err(err).Str("topic", ev.Topic.String()).Msg("dropping undecodable envelope")
		return
	}

	var probe struct {
		ID     uint64            `json:"id"`
		Method string            `json:"method"`
		Result json.RawMessage   `json:"result"`
		Error  *domain.ErrorBody `json:"error"`
	}
	if err := json.Unmarshal(payload, &probe); err != nil {
		e.logger.Warn().Err(err).Str("topic", ev.Topic.String()).Msg("dropping malformed frame")
		return
	}

	if probe.Method != "" {
		var req domain.Request
		if err := json.Unmarshal(payload, &req); err != nil {
			e.logger.Warn().Err(err).Msg("dropping malformed request")
			return
		}
		e.dispatchRequest(ev, req)
		return
	}

	var resp domain.Response
	if err := json.Unmarshal(payload, &resp); err != nil {
		e.logger.Warn().Err(err).Msg("dropping malformed response")
		return
	}
	e.dispatchResponse(ev, resp)
}

func (e *Engine) dispatchRequest(ev domain.RelayEvent, req domain.Request) {
	ctx := context.Background()
	switch req.Method {
	case MethodNotifyMessage:
		e.onNotifyMessageRequest(ctx, ev.Topic, req, ev.PublishedAt)
	case MethodNotifyDelete:
		e.onNotifyDeleteRequest(ctx, ev.Topic, req)
	case MethodNotifySubscriptionsChanged:
		e.onNotifySubscriptionsChangedRequest(ctx, ev.Topic, req)
	default:
		e.logger.Warn().Str("method", req.Method).Uint64("id", req.ID).Msg("ignoring unknown request method")
	}
}

// dispatchResponse routes a response by the method recorded with its
// pending request. The ledger entry and its expiry are freed before any
// user-visible event is emitted.
func (e *Engine) dispatchResponse(ev domain.RelayEvent, resp domain.Response) {
	pending, ok, err := e.deps.Requests.Get(resp.ID)
	if err != nil {
		e.logger.Error().Err(err).Uint64("id", resp.ID).Msg("request ledger read failed")
		return
	}
	if !ok {
		e.logger.Debug().Uint64("id", resp.ID).Msg("ignoring response with no pending request")
		return
	}
	if err := e.deps.Requests.Delete(resp.ID, "response"); err != nil {
		e.logger.Error().Err(err).Uint64("id", resp.ID).Msg("request ledger delete failed")
	}
	e.deps.Expirer.Del(requestTarget(resp.ID))

	ctx := context.Background()
	switch pending.Method {
	case MethodNotifySubscribe:
		e.onNotifySubscribeResponse(pending, resp)
	case MethodNotifyUpdate:
		e.onNotifyUpdateResponse(pending, resp)
	case MethodNotifyWatchSubscriptions:
		e.onNotifyWatchSubscriptionsResponse(ctx, pending, resp)
	case MethodNotifyDelete:
		// The ledger entry is freed; local teardown follows the server's
		// subscriptions_changed push.
		e.logger.Debug().Uint64("id", resp.ID).Msg("delete acknowledged")
	default:
		e.logger.Warn().Str("method", pending.Method).Uint64("id", resp.ID).Msg("response for unknown method")
	}
}

// handleExpiration drains an expired ledger entry and surfaces the expiry
// as a first-class event.
func (e *Engine) handleExpiration(exp domain.Expiration) {
	id, ok := requestIDFromTarget(exp.Target)
	if !ok {
		return
	}
	_, found, err := e.deps.Requests.Get(id)
	if err != nil {
		e.logger.Error().Err(err).Uint64("id", id).Msg("request ledger read failed on expiry")
		return
	}
	if !found {
		return
	}
	if err := e.deps.Requests.Delete(id, "expired"); err != nil {
		e.logger.Error().Err(err).Uint64("id", id).Msg("request ledger delete failed on expiry")
		return
	}
	e.events.emit(domain.RequestExpireEvent{ID: id})
}

// sendResult publishes a success response for an inbound request.
func (e *Engine) sendResult(ctx context.Context, topic domain.Topic, id uint64, result any, resTag int) error {
	raw, err := json.Marshal(result)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(domain.Response{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Result:  raw,
	})
	if err != nil {
		return err
	}
	env, err := e.deps.Crypto.Encode(topic, frame, nil)
	if err != nil {
		return err
	}
	return e.deps.Relay.Publish(ctx, topic, env, domain.PublishOptions{
		TTL:    requestTTL,
		Tag:    resTag,
		Prompt: false,
	})
}

// sendError publishes an error response for an inbound request.
func (e *Engine) sendError(ctx context.Context, topic domain.Topic, id uint64, message string, resTag int) {
	frame, err := json.Marshal(domain.Response{
		JSONRPC: domain.JSONRPCVersion,
		ID:      id,
		Error:   &domain.ErrorBody{Code: -32000, Message: message},
	})
	if err != nil {
		e.logger.Error().Err(err).Msg("marshal error response")
		return
	}
	env, err := e.deps.Crypto.Encode(topic, frame, nil)
	if err != nil {
		e.logger.Error().Err(err).Msg("encode error response")
		return
	}
	err = e.deps.Relay.Publish(ctx, topic, env, domain.PublishOptions{
		TTL:    requestTTL,
		Tag:    resTag,
		Prompt: false,
	})
	if err != nil {
		e.logger.Error().Err(err).Uint64("id", id).Msg("publish error response")
	}
}
