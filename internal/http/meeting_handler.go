package http

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/example/community-meetings/internal/application"
)

type meetingService interface {
	CreateMeeting(ctx context.Context, hostID int64, input application.MeetingInput) (application.Meeting, error)
	GetMeetingSummary(ctx context.Context, meetingID int64) (application.MeetingSummary, error)
	ListUpcoming(ctx context.Context) ([]application.MeetingSummary, error)
	ListUserMeetings(ctx context.Context, userID int64) ([]application.MeetingSummary, error)
	RescheduleMeeting(ctx context.Context, meetingID int64, start time.Time) (application.Meeting, error)
	CancelMeeting(ctx context.Context, meetingID int64) error
}

type registrationService interface {
	Register(ctx context.Context, meetingID, userID int64) (application.RegistrationOutcome, error)
	Unregister(ctx context.Context, meetingID, userID int64) (application.RegistrationOutcome, error)
}

type userService interface {
	EnsureUser(ctx context.Context, profile application.UserProfile) (application.UserProfile, error)
}

// MeetingHandler translates HTTP requests into meeting and registration
// operations. Every request body carries the interacting user's profile; the
// user row is created or refreshed before the operation runs, mirroring the
// platform's first-interaction behavior.
type MeetingHandler struct {
	meetings      meetingService
	registrations registrationService
	users         userService
	responder     responder
}

// NewMeetingHandler wires the handler.
func NewMeetingHandler(meetings meetingService, registrations registrationService, users userService, logger *slog.Logger) *MeetingHandler {
	return &MeetingHandler{
		meetings:      meetings,
		registrations: registrations,
		users:         users,
		responder:     newResponder(logger),
	}
}

type userDTO struct {
	ID       int64   `json:"id"`
	Name     string  `json:"name"`
	Username *string `json:"username,omitempty"`
}

type createMeetingRequest struct {
	Host        userDTO   `json:"host"`
	Topic       string    `json:"topic"`
	Description string    `json:"description"`
	StartAt     time.Time `json:"start_at"`
	Capacity    int       `json:"capacity"`
	Location    *string   `json:"location,omitempty"`
}

type meetingDTO struct {
	ID          int64      `json:"id"`
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	StartAt     time.Time  `json:"start_at"`
	Capacity    int        `json:"capacity"`
	Location    *string    `json:"location,omitempty"`
	CreatedBy   int64      `json:"created_by"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
	CanceledAt  *time.Time `json:"canceled_at,omitempty"`
}

type meetingSummaryDTO struct {
	ID             int64     `json:"id"`
	Topic          string    `json:"topic"`
	Description    string    `json:"description"`
	StartAt        time.Time `json:"start_at"`
	Capacity       int       `json:"capacity"`
	ConfirmedCount int       `json:"confirmed_count"`
	HostCount      int       `json:"host_count"`
	AvailableSlots int       `json:"available_slots"`
	Location       *string   `json:"location,omitempty"`
	HostName       string    `json:"host_name"`
}

type registrationRequest struct {
	User userDTO `json:"user"`
}

type registrationOutcomeDTO struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}

type rescheduleRequest struct {
	StartAt time.Time `json:"start_at"`
}

// Create handles POST /meetings.
func (h *MeetingHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req createMeetingRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	if !h.ensureUser(w, r, req.Host) {
		return
	}

	meeting, err := h.meetings.CreateMeeting(r.Context(), req.Host.ID, application.MeetingInput{
		Topic:       req.Topic,
		Description: req.Description,
		StartAt:     req.StartAt,
		Capacity:    req.Capacity,
		Location:    req.Location,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}

	h.responder.writeJSON(r.Context(), w, http.StatusCreated, toMeetingDTO(meeting))
}

// List handles GET /meetings.
func (h *MeetingHandler) List(w http.ResponseWriter, r *http.Request) {
	summaries, err := h.meetings.ListUpcoming(r.Context())
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSummaryDTOs(summaries))
}

// Get handles GET /meetings/{id}.
func (h *MeetingHandler) Get(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	summary, err := h.meetings.GetMeetingSummary(r.Context(), meetingID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSummaryDTO(summary))
}

// Reschedule handles PUT /meetings/{id}/start.
func (h *MeetingHandler) Reschedule(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	var req rescheduleRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}

	meeting, err := h.meetings.RescheduleMeeting(r.Context(), meetingID, req.StartAt)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toMeetingDTO(meeting))
}

// Cancel handles DELETE /meetings/{id}.
func (h *MeetingHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	if err := h.meetings.CancelMeeting(r.Context(), meetingID); err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusNoContent, nil)
}

// Register handles POST /meetings/{id}/registrations.
func (h *MeetingHandler) Register(w http.ResponseWriter, r *http.Request) {
	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}

	var req registrationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errBadRequestBody)
		return
	}
	if !h.ensureUser(w, r, req.User) {
		return
	}

	outcome, err := h.registrations.Register(r.Context(), meetingID, req.User.ID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, outcomeStatusCode(outcome), toOutcomeDTO(outcome))
}

// Unregister handles DELETE /meetings/{id}/registrations/{userID}.
func (h *MeetingHandler) Unregister(w http.ResponseWriter, r *http.Request, userID int64) {
	meetingID, ok := MeetingIDFromContext(r.Context())
	if !ok {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidMeetingID)
		return
	}
	if userID == 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	outcome, err := h.registrations.Unregister(r.Context(), meetingID, userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, outcomeStatusCode(outcome), toOutcomeDTO(outcome))
}

// ListForUser handles GET /users/{id}/meetings.
func (h *MeetingHandler) ListForUser(w http.ResponseWriter, r *http.Request, userID int64) {
	if userID == 0 {
		h.responder.writeError(r.Context(), w, http.StatusBadRequest, errInvalidUserID)
		return
	}

	summaries, err := h.meetings.ListUserMeetings(r.Context(), userID)
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return
	}
	h.responder.writeJSON(r.Context(), w, http.StatusOK, toSummaryDTOs(summaries))
}

func (h *MeetingHandler) ensureUser(w http.ResponseWriter, r *http.Request, user userDTO) bool {
	if h.users == nil {
		return true
	}
	_, err := h.users.EnsureUser(r.Context(), application.UserProfile{
		ID:       user.ID,
		Name:     user.Name,
		Username: user.Username,
	})
	if err != nil {
		h.responder.handleServiceError(r.Context(), w, err)
		return false
	}
	return true
}

func outcomeStatusCode(outcome application.RegistrationOutcome) int {
	if outcome.Status == application.ResultNotFound {
		return http.StatusNotFound
	}
	return http.StatusOK
}

func toMeetingDTO(meeting application.Meeting) meetingDTO {
	return meetingDTO{
		ID:          meeting.ID,
		Topic:       meeting.Topic,
		Description: meeting.Description,
		StartAt:     meeting.StartAt,
		Capacity:    meeting.Capacity,
		Location:    meeting.Location,
		CreatedBy:   meeting.CreatedBy,
		CreatedAt:   meeting.CreatedAt,
		UpdatedAt:   meeting.UpdatedAt,
		CanceledAt:  meeting.CanceledAt,
	}
}

func toSummaryDTO(summary application.MeetingSummary) meetingSummaryDTO {
	return meetingSummaryDTO{
		ID:             summary.ID,
		Topic:          summary.Topic,
		Description:    summary.Description,
		StartAt:        summary.StartAt,
		Capacity:       summary.Capacity,
		ConfirmedCount: summary.ConfirmedCount,
		HostCount:      summary.HostCount,
		AvailableSlots: summary.AvailableSlots(),
		Location:       summary.Location,
		HostName:       summary.HostName,
	}
}

func toSummaryDTOs(summaries []application.MeetingSummary) []meetingSummaryDTO {
	out := make([]meetingSummaryDTO, 0, len(summaries))
	for _, summary := range summaries {
		out = append(out, toSummaryDTO(summary))
	}
	return out
}

func toOutcomeDTO(outcome application.RegistrationOutcome) registrationOutcomeDTO {
	return registrationOutcomeDTO{
		Status:  string(outcome.Status),
		Message: outcome.Message,
	}
}
