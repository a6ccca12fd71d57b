package faceHandler

import (
	"FaceSignal/internal/api/face"
	contextPkg "FaceSignal/pkg/context"
	"FaceSignal/pkg/handlerUtil"
	"FaceSignal/pkg/log"
	"errors"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/websocket/v2"
	"golang.org/x/net/context"
	"time"
)

const (
	streamReadTimeout = 60 * time.Second
	snapshotTimeout   = 10 * time.Second
)

func (h *FaceHandler) handleSignalsWebSocket(c *websocket.Conn) {
	h.log.Info("Signal WebSocket client connected")
	defer h.log.Info("Signal WebSocket client disconnected")

	if err := c.WriteJSON(face.SignalsResponse{SignalUpdate: h.samplerService.Latest()}); err != nil {
		h.log.Errorf("Error writing initial signals: %v", err)
		return
	}

	if err := h.hub.Register(c); err != nil {
		h.log.WithError(err).Warn("Signal hub rejected client")
		return
	}
	defer h.hub.Unregister(c)

	// Reads only detect the close; clients have nothing to send.
	for {
		if _, _, err := c.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Signal WebSocket error: %v", err)
			}
			return
		}
	}
}

func (h *FaceHandler) handleStreamWebSocket(c *websocket.Conn) {
	h.log.Info("Frame stream WebSocket client connected")
	defer h.log.Info("Frame stream WebSocket client disconnected")

	c.SetPingHandler(func(data string) error {
		if err := c.WriteControl(websocket.PongMessage, []byte(data), time.Now().Add(5*time.Second)); err != nil {
			h.log.Errorf("Error sending pong: %v", err)
		}
		return nil
	})

	for {
		if err := c.SetReadDeadline(time.Now().Add(streamReadTimeout)); err != nil {
			h.log.Errorf("Error setting read deadline: %v", err)
			break
		}

		messageType, message, err := c.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				h.log.Errorf("Frame stream WebSocket error: %v", err)
			} else {
				h.log.Info("Frame stream WebSocket connection closed")
			}
			break
		}

		if messageType != websocket.BinaryMessage {
			h.log.Warnf("Received unexpected message type: %d", messageType)
			continue
		}

		if err := h.samplerService.IngestFrame(message); err != nil {
			if writeErr := c.WriteJSON(fiber.Map{"error": err.Error()}); writeErr != nil {
				h.log.Errorf("Error sending error response: %v", writeErr)
				break
			}
			// Nothing will be sampled from a source that rejects pushed frames.
			if errors.Is(err, face.ErrIngestUnsupported) {
				break
			}
		}
	}
}

func (h *FaceHandler) GetSignals(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, face.SignalsResponse{
		SignalUpdate: h.samplerService.Latest(),
	})
}

func (h *FaceHandler) GetStatus(ctx *fiber.Ctx) error {
	errHandler := handlerUtil.New(h.log)
	return errHandler.HandleSuccess(ctx, fiber.StatusOK, h.samplerService.Status())
}

func (h *FaceHandler) StartCapture(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	if err := h.samplerService.Start(contextPkg.FromFiberCtx(ctx)); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "start_capture")
	}

	h.log.WithFields(log.Fields{
		"request_id": requestID,
	}).Info("Video capture started by request")

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, face.CaptureResponse{
		Capturing: true,
		Message:   "video capture started",
	})
}

func (h *FaceHandler) StopCapture(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	errHandler := handlerUtil.New(h.log)

	if err := h.samplerService.Stop(); err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "stop_capture")
	}

	return errHandler.HandleSuccess(ctx, fiber.StatusOK, face.CaptureResponse{
		Capturing: false,
		Message:   "video capture stopped",
	})
}

func (h *FaceHandler) CaptureSnapshot(ctx *fiber.Ctx) error {
	requestID := h.middleware.GetRequestID(ctx)
	c, cancel := context.WithTimeout(contextPkg.FromFiberCtx(ctx), snapshotTimeout)
	defer cancel()

	errHandler := handlerUtil.New(h.log)

	var req face.SnapshotRequest
	if len(ctx.Body()) > 0 {
		if err := ctx.BodyParser(&req); err != nil {
			return errHandler.Handle(ctx, requestID, face.ErrBadRequest, ctx.Path(), "parse_request_body")
		}
		if err := h.validator.Struct(req); err != nil {
			return errHandler.HandleValidationError(ctx, requestID, err, ctx.Path())
		}
	}

	snapshot, err := h.samplerService.CaptureSnapshot(c, req.Upload)
	if err != nil {
		return errHandler.Handle(ctx, requestID, err, ctx.Path(), "capture_snapshot")
	}

	select {
	case <-c.Done():
		return errHandler.HandleRequestTimeout(ctx)
	default:
		h.log.WithFields(log.Fields{
			"request_id": requestID,
			"width":      snapshot.Width,
			"height":     snapshot.Height,
			"uploaded":   snapshot.Location != "",
		}).Info("Snapshot captured")
		return errHandler.HandleSuccess(ctx, fiber.StatusOK, face.SnapshotResponse{
			Width:    snapshot.Width,
			Height:   snapshot.Height,
			MimeType: snapshot.MimeType,
			DataURL:  snapshot.DataURL,
			Location: snapshot.Location,
		})
	}
}
