// Copyright (c) 2025, WSO2 LLC. (https://www.wso2.com).
//
// WSO2 LLC. licenses this file to you under the Apache License,
// Version 2.0 (the "License"); you may not use this file except
// in compliance with the License.
// You may obtain a copy of the License at
//
// http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing,
// software distributed under the License is distributed on an
// "AS IS" BASIS, WITHOUT WARRANTIES OR CONDITIONS OF ANY
// KIND, either express or implied. See the License for the
// specific language governing permissions and limitations
// under the License.

// Package handler runs the per-session protocol: it decodes inbound frames,
// resolves them and turns the outcome into a registry mutation or a
// session-scoped reply.
package handler

import (
	"context"
	"log/slog"

	"github.com/freshvault/inventory-sync/internal/engine"
	"github.com/freshvault/inventory-sync/internal/logging"
	"github.com/freshvault/inventory-sync/internal/resolver"
	"github.com/freshvault/inventory-sync/pkg/core"
)

const (
	msgInvalidFormat = "Invalid data format"
	msgServerError   = "Server error processing scan"
)

type Resolver interface {
	ResolveCode(ctx context.Context, code string) resolver.Resolution
	ResolveSubmission(ctx context.Context, sub core.Submission) resolver.Resolution
}

type Mutator interface {
	Apply(ctx context.Context, product core.Product, code string) (engine.Outcome, error)
	Delete(ctx context.Context, id int64) (engine.Outcome, error)
}

type Handler struct {
	resolver Resolver
	mutator  Mutator
	logger   *slog.Logger
	frameLog *logging.FrameLogger
}

func New(r Resolver, m Mutator, logger *slog.Logger, frameLog *logging.FrameLogger) *Handler {
	return &Handler{
		resolver: r,
		mutator:  m,
		logger:   logger,
		frameLog: frameLog,
	}
}

// HandleMessage processes one inbound frame for sess. Failures are reported
// to sess only; a panic is recovered and reported as a server error.
func (h *Handler) HandleMessage(ctx context.Context, sess *core.Session, payload []byte) {
	defer func() {
		if r := recover(); r != nil {
			h.logger.Error("handler panic recovered", "session_id", sess.ID, "error", r)
			h.reply(sess, core.ErrorMessage(msgServerError))
		}
	}()

	in, err := DecodeInbound(payload)
	if err != nil {
		h.logger.Warn("malformed inbound frame", "session_id", sess.ID, "size", len(payload), "error", err)
		h.reply(sess, core.ErrorMessage(msgInvalidFormat))
		return
	}
	if h.frameLog != nil {
		h.frameLog.Inbound(sess, in.Kind.String(), len(payload))
	}

	var res resolver.Resolution
	switch in.Kind {
	case core.InboundDelete:
		if _, err := h.mutator.Delete(ctx, in.ProductID); err != nil {
			h.mutationFailed(sess, err)
		}
		return
	case core.InboundCode:
		res = h.resolver.ResolveCode(ctx, in.Code)
	default:
		res = h.resolver.ResolveSubmission(ctx, in.Submission)
	}
	h.dispatch(ctx, sess, res)
}

func (h *Handler) dispatch(ctx context.Context, sess *core.Session, res resolver.Resolution) {
	switch res.Outcome {
	case resolver.OutcomeResolved:
		if _, err := h.mutator.Apply(ctx, res.Product, res.Code); err != nil {
			h.mutationFailed(sess, err)
		}
	case resolver.OutcomePrompt:
		h.reply(sess, core.ManualInputMessage(res.Code, res.Prompt))
	case resolver.OutcomeRejected:
		h.logger.Info("inbound rejected", "session_id", sess.ID, "code", res.Code, "reason", res.Reason)
		h.reply(sess, core.ErrorMessage("Invalid data: "+res.Reason))
	case resolver.OutcomeFailed:
		h.reply(sess, core.ErrorMessage("Database error: "+res.Reason))
	}
}

func (h *Handler) mutationFailed(sess *core.Session, err error) {
	if sess.Closed() {
		return
	}
	h.logger.Error("mutation failed", "session_id", sess.ID, "error", err)
	h.reply(sess, core.ErrorMessage("Error processing product: "+err.Error()))
}

func (h *Handler) reply(sess *core.Session, msg core.Message) {
	if !sess.Offer(msg) {
		h.logger.Warn("reply dropped", "session_id", sess.ID, "type", string(msg.Type))
		return
	}
	if h.frameLog != nil {
		h.frameLog.Outbound(sess, msg)
	}
}
