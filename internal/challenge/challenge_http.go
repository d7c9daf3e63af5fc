package challenge

import (
	"context"
	"errors"
	"net/http"

	"github.com/adagearchive/moderation/internal/auth/permission"
	"github.com/adagearchive/moderation/internal/auth/session"
	"github.com/adagearchive/moderation/internal/content"
	"github.com/adagearchive/moderation/internal/httphelper"
	"github.com/adagearchive/moderation/internal/notification"
	"github.com/gin-gonic/gin"
	"github.com/gofrs/uuid/v5"
)

// NotificationReader loads the notification an appeal was started from.
type NotificationReader interface {
	ByID(ctx context.Context, notificationID int64) (notification.Notification, error)
}

type challengeHandler struct {
	lifecycle     *Lifecycle
	notifications NotificationReader
}

func NewHandler(engine *gin.Engine, lifecycle *Lifecycle, notifications NotificationReader, authenticator httphelper.Authenticator) {
	handler := &challengeHandler{lifecycle: lifecycle, notifications: notifications}

	// authed
	authedGrp := engine.Group("/")
	{
		authed := authedGrp.Use(authenticator.Middleware(permission.User))
		authed.POST("/api/challenges", handler.onSubmit())
		authed.POST("/api/challenges/appeal", handler.onAppeal())
	}

	// mod
	modGrp := engine.Group("/")
	{
		mod := modGrp.Use(authenticator.Middleware(permission.Moderator))
		mod.GET("/api/challenges", handler.onQuery())
		mod.GET("/api/challenges/:challenge_id", handler.onGet())
		mod.POST("/api/challenges/:challenge_id/decision", handler.onDecide())
	}

	// admin
	adminGrp := engine.Group("/")
	{
		admin := adminGrp.Use(authenticator.Middleware(permission.Admin))
		admin.POST("/api/challenges/:challenge_id/appeal/decision", handler.onAdjudicate())
	}
}

type RequestSubmit struct {
	TargetType          content.Type `json:"target_type" binding:"required,content_type"`
	TargetID            string       `json:"target_id" binding:"required"`
	Reason              string       `json:"challenge_reason" binding:"required"`
	SuggestedCorrection string       `json:"suggested_correction"`
}

type RequestDecision struct {
	Decision Decision `json:"decision" binding:"required,oneof=accepted rejected"`
}

// RequestAppeal identifies the challenge by id, by target, or by the notification the user received.
type RequestAppeal struct {
	ChallengeID    uuid.UUID    `json:"challenge_id"`
	TargetType     content.Type `json:"target_type"`
	TargetID       string       `json:"target_id"`
	NotificationID int64        `json:"notification_id"`
	Message        string       `json:"message" binding:"required"`
}

func (h *challengeHandler) onSubmit() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, ok := httphelper.BindJSON[RequestSubmit](ctx)
		if !ok {
			return
		}

		user, _ := session.CurrentUserProfile(ctx)

		challenge, errSubmit := h.lifecycle.Submit(ctx, NewChallenge{
			Target:              content.Target{Type: req.TargetType, ID: req.TargetID},
			ChallengerID:        user.UserID,
			Reason:              req.Reason,
			SuggestedCorrection: req.SuggestedCorrection,
		})
		if errSubmit != nil {
			setLifecycleError(ctx, errSubmit)

			return
		}

		ctx.JSON(http.StatusCreated, challenge)
	}
}

func (h *challengeHandler) onQuery() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		var filter Query
		if !httphelper.BindQuery(ctx, &filter) {
			return
		}

		challenges, count, errQuery := h.lifecycle.Query(ctx, filter)
		if errQuery != nil {
			httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(errQuery, httphelper.ErrInternal)))

			return
		}

		ctx.JSON(http.StatusOK, httphelper.NewLazyResult(count, challenges))
	}
}

func (h *challengeHandler) onGet() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		challengeID, idFound := httphelper.GetUUIDParam(ctx, "challenge_id")
		if !idFound {
			return
		}

		challenge, errGet := h.lifecycle.ByID(ctx, challengeID)
		if errGet != nil {
			setLifecycleError(ctx, errGet)

			return
		}

		ctx.JSON(http.StatusOK, challenge)
	}
}

func (h *challengeHandler) onDecide() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		challengeID, idFound := httphelper.GetUUIDParam(ctx, "challenge_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[RequestDecision](ctx)
		if !ok {
			return
		}

		user, _ := session.CurrentUserProfile(ctx)

		result, errDecide := h.lifecycle.Decide(ctx, challengeID, req.Decision, user.UserID)
		if errDecide != nil {
			setLifecycleError(ctx, errDecide)

			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func (h *challengeHandler) onAppeal() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		req, ok := httphelper.BindJSON[RequestAppeal](ctx)
		if !ok {
			return
		}

		user, _ := session.CurrentUserProfile(ctx)
		lookup := Lookup{ChallengeID: req.ChallengeID, Target: content.Target{Type: req.TargetType, ID: req.TargetID}}

		if req.NotificationID > 0 && lookup.ChallengeID.IsNil() && !lookup.Target.Valid() {
			notif, errNotif := h.notifications.ByID(ctx, req.NotificationID)
			if errNotif != nil || notif.UserID != user.UserID {
				httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusNotFound, httphelper.ErrNotFound,
					"Unknown notification: %d", req.NotificationID))

				return
			}

			lookup = LookupFromNotification(notif)
		}

		result, errAppeal := h.lifecycle.SubmitAppeal(ctx, lookup, user.UserID, req.Message)
		if errAppeal != nil {
			setLifecycleError(ctx, errAppeal)

			return
		}

		ctx.JSON(http.StatusCreated, result)
	}
}

func (h *challengeHandler) onAdjudicate() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		challengeID, idFound := httphelper.GetUUIDParam(ctx, "challenge_id")
		if !idFound {
			return
		}

		req, ok := httphelper.BindJSON[RequestDecision](ctx)
		if !ok {
			return
		}

		user, _ := session.CurrentUserProfile(ctx)

		result, errAdjudicate := h.lifecycle.AdjudicateAppeal(ctx, challengeID, req.Decision, user.UserID)
		if errAdjudicate != nil {
			setLifecycleError(ctx, errAdjudicate)

			return
		}

		ctx.JSON(http.StatusOK, result)
	}
}

func setLifecycleError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, ErrInvalidRequest):
		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusBadRequest, httphelper.ErrBadRequest, "%s", err.Error()))
	case errors.Is(err, ErrNotFound), errors.Is(err, ErrAppealNotFound):
		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusNotFound, httphelper.ErrNotFound, "%s", err.Error()))
	case errors.Is(err, ErrNotContentOwner):
		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusForbidden, httphelper.ErrPermissionDenied,
			"Only the author of the content may appeal"))
	case errors.Is(err, ErrPersistenceConflict):
		ctx.Header("Retry-After", "1")
		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusConflict, httphelper.ErrConflict,
			"The challenge was modified concurrently, retry the request"))
	case errors.Is(err, ErrInvalidTransition), errors.Is(err, ErrAppealNotEligible),
		errors.Is(err, ErrAppealAlreadyDecided):
		httphelper.SetError(ctx, httphelper.NewAPIErrorf(http.StatusConflict, httphelper.ErrConflict, "%s", err.Error()))
	default:
		httphelper.SetError(ctx, httphelper.NewAPIError(http.StatusInternalServerError, errors.Join(err, httphelper.ErrInternal)))
	}
}
