// Chairside - Dental Clinic Realtime Gateway
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/chairside

package gateway

import (
	"github.com/tomtom215/chairside/internal/events"
	"github.com/tomtom215/chairside/internal/logging"
	"github.com/tomtom215/chairside/internal/metrics"
	"github.com/tomtom215/chairside/internal/store"
	"github.com/tomtom215/chairside/internal/validation"
)

// knownEvents bounds the label cardinality of RTFramesReceived.
var knownEvents = map[string]bool{
	events.Connect:       true,
	events.Join:          true,
	events.Leave:         true,
	events.Authorization: true,
	events.MessageSend:   true,
}

// dispatch handles one frame from an authenticated connection.
func (c *Conn) dispatch(f Frame) {
	label := f.Event
	if !knownEvents[label] {
		label = "other"
	}
	metrics.RTFramesReceived.WithLabelValues(label).Inc()

	if c.limiter != nil && !c.limiter.Allow() {
		metrics.RTFramesRateLimited.Inc()
		c.rejectRateLimited(f)
		return
	}

	switch f.Event {
	case events.Join:
		c.handleRooms(f, true)
	case events.Leave:
		c.handleRooms(f, false)
	case events.Authorization:
		c.handleAuthorization(f)
	case events.MessageSend:
		c.handleSendMessage(f)
	case events.Connect:
		// Already authenticated.
	default:
		c.log.Debug().Str("event", f.Event).Msg("ignoring unknown event")
	}
}

func (c *Conn) rejectRateLimited(f Frame) {
	if f.Event == events.MessageSend {
		metrics.RecordMessageSend(ErrCodeRateLimited)
		c.sendAck(f.Ack, SendAck{OK: false, Error: ErrCodeRateLimited})
		return
	}
	c.sendAck(f.Ack, SuccessAck{Success: false})
}

// handleRooms applies join or leave. Malformed data is treated as an empty
// room list and still acknowledged.
func (c *Conn) handleRooms(f Frame, join bool) {
	var p RoomsPayload
	if err := decodeData(f, &p); err != nil {
		c.log.Debug().Err(err).Str("event", f.Event).Msg("malformed rooms payload")
	}

	var err error
	if join {
		err = c.srv.hub.Join(c.ctx, c, p.Rooms)
	} else {
		err = c.srv.hub.Leave(c.ctx, c, p.Rooms)
	}
	if err != nil {
		c.log.Debug().Err(err).Str("event", f.Event).Msg("room update not applied")
		return
	}
	c.sendAck(f.Ack, SuccessAck{Success: true})
}

// handleAuthorization re-verifies the connection with a fresh credential.
// Failure closes the connection.
func (c *Conn) handleAuthorization(f Frame) {
	var p AuthorizationPayload
	if err := decodeData(f, &p); err != nil {
		c.log.Debug().Err(err).Msg("malformed authorization payload")
	}

	token := p.Token()
	if token == "" {
		c.failReauth(f, "missing token")
		return
	}
	claims, err := c.srv.tokens.VerifyAccessToken(token)
	if err != nil {
		c.failReauth(f, err.Error())
		return
	}

	id := claims.Identity()
	if err := c.srv.hub.reidentify(c.ctx, c, id); err != nil {
		c.log.Debug().Err(err).Msg("reauthorization not applied")
		return
	}
	c.srv.authLog.Reauthorized(c.id, id.UserID, true, "")
	c.sendAck(f.Ack, SuccessAck{Success: true})
}

func (c *Conn) failReauth(f Frame, reason string) {
	metrics.RecordAuthFailure(events.ReasonInvalidToken)
	c.srv.authLog.Reauthorized(c.id, "", false, reason)
	c.sendAck(f.Ack, SuccessAck{Success: false})
	c.sendEvent(events.AuthError, AuthErrorData{Error: events.ReasonInvalidToken})
	c.close()
}

// handleSendMessage persists a chat message and fans message:new out to
// the patient's listeners. Store failures are reported in the ack only.
func (c *Conn) handleSendMessage(f Frame) {
	var p SendMessagePayload
	if err := decodeData(f, &p); err != nil {
		metrics.RecordMessageSend(ErrCodeInvalidPayload)
		c.sendAck(f.Ack, SendAck{OK: false, Error: ErrCodeInvalidPayload})
		return
	}
	if verr := validation.ValidateStruct(&p); verr != nil {
		c.log.Debug().Strs("fields", verr.Fields()).Msg("invalid message:send payload")
		metrics.RecordMessageSend(ErrCodeInvalidPayload)
		c.sendAck(f.Ack, SendAck{OK: false, Error: ErrCodeInvalidPayload})
		return
	}

	msg, err := c.srv.messages.CreateMessage(c.ctx, store.NewMessage{
		PatientID: p.PatientID,
		Sender:    p.Sender,
		Content:   p.Content,
	})
	if err != nil {
		logging.Ctx(c.ctx).Error().Err(err).Str("patient_id", p.PatientID).Msg("failed to persist message")
		metrics.RecordMessageSend(ErrCodeServerError)
		c.sendAck(f.Ack, SendAck{OK: false, Error: ErrCodeServerError})
		return
	}

	metrics.RecordMessageSend("ok")
	c.sendAck(f.Ack, SendAck{OK: true, Message: &msg})
	if c.srv.publisher != nil {
		c.srv.publisher.MessageCreated(c.ctx, msg)
	}
}
