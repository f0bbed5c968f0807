package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/mohamedkhairy/chatts-server/internal/auth"
	"github.com/mohamedkhairy/chatts-server/internal/models"
	"github.com/mohamedkhairy/chatts-server/internal/storage"
	"github.com/mohamedkhairy/chatts-server/internal/wsgateway"
	"github.com/mohamedkhairy/chatts-server/pkg/logger"
)

// Notifier is the server-side emit surface of the gateway, satisfied by
// *wsgateway.Hub. Handlers use it to push ALERT / REFETCH_CHATS /
// NEW_REQUEST events after chat mutations.
type Notifier interface {
	EmitToUsers(userIDs []string, event string, data interface{})
}

// Handler serves the request/response API
type Handler struct {
	store    storage.Store
	chats    storage.ChatStore
	tokens   *auth.TokenManager
	notifier Notifier
}

// NewHandler creates an API handler. The chat store is passed separately so
// the cached wrapper can be injected on the member-list path.
func NewHandler(store storage.Store, chats storage.ChatStore, tokens *auth.TokenManager, notifier Notifier) *Handler {
	return &Handler{
		store:    store,
		chats:    chats,
		tokens:   tokens,
		notifier: notifier,
	}
}

// RegisterRoutes mounts all API routes onto the router
func (h *Handler) RegisterRoutes(router *mux.Router, rps int) {
	public := router.PathPrefix("/api/v1").Subrouter()
	public.Use(mux.MiddlewareFunc(ChainMiddleware(RecoverMiddleware(), LoggingMiddleware(), CORSMiddleware(), RateLimitMiddleware(rps))))
	public.HandleFunc("/auth/register", h.Register).Methods(http.MethodPost, http.MethodOptions)
	public.HandleFunc("/auth/login", h.Login).Methods(http.MethodPost, http.MethodOptions)

	private := router.PathPrefix("/api/v1").Subrouter()
	private.Use(mux.MiddlewareFunc(ChainMiddleware(RecoverMiddleware(), LoggingMiddleware(), CORSMiddleware(), AuthMiddleware(h.tokens))))
	private.HandleFunc("/auth/logout", h.Logout).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/users/me", h.Me).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/chats/my", h.MyChats).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/chats/group", h.CreateGroup).Methods(http.MethodPost, http.MethodOptions)
	private.HandleFunc("/chats/{id}/members", h.ChatMembers).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/chats/{id}/messages", h.ChatMessages).Methods(http.MethodGet, http.MethodOptions)
	private.HandleFunc("/requests", h.SendRequest).Methods(http.MethodPost, http.MethodOptions)
	private.HandleFunc("/requests/{id}", h.AnswerRequest).Methods(http.MethodPut, http.MethodOptions)
}

type registerRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Bio      string `json:"bio"`
}

// Register creates a user account and logs it in
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Username == "" || req.Password == "" {
		respondWithError(w, http.StatusBadRequest, "username and password are required")
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		respondWithError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	user, err := h.store.CreateUser(r.Context(), &models.User{
		Username: req.Username,
		Email:    req.Email,
		Bio:      req.Bio,
		Password: hash,
	})
	if err != nil {
		if errors.Is(err, models.ErrUsernameTaken) {
			respondWithError(w, http.StatusConflict, err.Error())
			return
		}
		logger.Error("Failed to create user", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to create user")
		return
	}

	h.issueSession(w, user, http.StatusCreated)
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Login verifies credentials and issues the session cookie
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	user, err := h.store.FindUserByUsername(r.Context(), req.Username)
	if err != nil || !auth.CheckPassword(user.Password, req.Password) {
		respondWithError(w, http.StatusUnauthorized, models.ErrInvalidCredentials.Error())
		return
	}

	h.issueSession(w, user, http.StatusOK)
}

// Logout clears the session cookie
func (h *Handler) Logout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     h.tokens.CookieName(),
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"message": "logged out",
	})
}

// Me returns the authenticated user's profile
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.FindUserByID(r.Context(), UserID(r))
	if err != nil {
		respondWithError(w, http.StatusNotFound, "user not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"user":    user,
	})
}

// MyChats lists the chats the authenticated user belongs to
func (h *Handler) MyChats(w http.ResponseWriter, r *http.Request) {
	chats, err := h.store.FindChatsByMember(r.Context(), UserID(r))
	if err != nil {
		logger.Error("Failed to list chats", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list chats")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"chats":   chats,
	})
}

type createGroupRequest struct {
	Name    string   `json:"name"`
	Members []string `json:"members"`
}

// CreateGroup creates a group chat and notifies its members
func (h *Handler) CreateGroup(w http.ResponseWriter, r *http.Request) {
	var req createGroupRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Name == "" || len(req.Members) < 2 {
		respondWithError(w, http.StatusBadRequest, "a group chat needs a name and at least 2 other members")
		return
	}

	creator := UserID(r)
	memberIDs := append([]string{creator}, req.Members...)
	members := make([]models.ChatMember, 0, len(memberIDs))
	for _, id := range memberIDs {
		members = append(members, models.ChatMember{User: id})
	}

	chat, err := h.chats.CreateChat(r.Context(), &models.Chat{
		Name:      req.Name,
		GroupChat: true,
		Creator:   creator,
		Members:   members,
	})
	if err != nil {
		logger.Error("Failed to create chat", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to create chat")
		return
	}

	h.notifier.EmitToUsers(memberIDs, wsgateway.EventAlert, fmt.Sprintf("Welcome to %s group", chat.Name))
	h.notifier.EmitToUsers(req.Members, wsgateway.EventRefetchChats, nil)

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"chat":    chat,
	})
}

// ChatMembers returns the member list of a chat the caller belongs to
func (h *Handler) ChatMembers(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	members, err := h.chats.FindChatMembers(r.Context(), chatID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "chat not found")
		return
	}
	if !isMember(members, UserID(r)) {
		respondWithError(w, http.StatusForbidden, models.ErrNotChatMember.Error())
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"members": members,
	})
}

// ChatMessages returns a page of message history, newest first
func (h *Handler) ChatMessages(w http.ResponseWriter, r *http.Request) {
	chatID := mux.Vars(r)["id"]
	members, err := h.chats.FindChatMembers(r.Context(), chatID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "chat not found")
		return
	}
	if !isMember(members, UserID(r)) {
		respondWithError(w, http.StatusForbidden, models.ErrNotChatMember.Error())
		return
	}

	page, _ := strconv.Atoi(r.URL.Query().Get("page"))
	messages, err := h.store.FindMessagesByChat(r.Context(), chatID, 20, page)
	if err != nil {
		logger.Error("Failed to list messages", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to list messages")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success":  true,
		"messages": messages,
	})
}

type sendRequestRequest struct {
	ReceiverID string `json:"receiverId"`
}

// SendRequest creates a friend request and notifies the receiver
func (h *Handler) SendRequest(w http.ResponseWriter, r *http.Request) {
	var req sendRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.ReceiverID == "" {
		respondWithError(w, http.StatusBadRequest, "receiverId is required")
		return
	}
	sender := UserID(r)

	if _, err := h.store.FindPendingRequest(r.Context(), sender, req.ReceiverID); err == nil {
		respondWithError(w, http.StatusConflict, models.ErrDuplicateRequest.Error())
		return
	}

	request, err := h.store.CreateRequest(r.Context(), &models.FriendRequest{
		Sender:   sender,
		Receiver: req.ReceiverID,
	})
	if err != nil {
		logger.Error("Failed to create request", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to create request")
		return
	}

	h.notifier.EmitToUsers([]string{req.ReceiverID}, wsgateway.EventNewRequest, nil)

	respondWithJSON(w, http.StatusCreated, map[string]interface{}{
		"success": true,
		"request": request,
	})
}

type answerRequestRequest struct {
	Accept bool `json:"accept"`
}

// AnswerRequest accepts or rejects a friend request; acceptance creates the
// direct chat and tells both sides to refetch their chat lists.
func (h *Handler) AnswerRequest(w http.ResponseWriter, r *http.Request) {
	requestID := mux.Vars(r)["id"]

	var req answerRequestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondWithError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	request, err := h.store.FindRequestByID(r.Context(), requestID)
	if err != nil {
		respondWithError(w, http.StatusNotFound, "request not found")
		return
	}
	if request.Receiver != UserID(r) {
		respondWithError(w, http.StatusForbidden, "only the receiver can answer a request")
		return
	}
	if request.Status != models.RequestPending {
		respondWithError(w, http.StatusConflict, models.ErrRequestAnswered.Error())
		return
	}

	status := models.RequestRejected
	if req.Accept {
		status = models.RequestAccepted
	}
	if err := h.store.UpdateRequestStatus(r.Context(), requestID, status); err != nil {
		logger.Error("Failed to update request", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to update request")
		return
	}

	if req.Accept {
		pair := []string{request.Sender, request.Receiver}
		_, err := h.chats.CreateChat(r.Context(), &models.Chat{
			Name:      "direct",
			GroupChat: false,
			Creator:   request.Sender,
			Members: []models.ChatMember{
				{User: request.Sender},
				{User: request.Receiver},
			},
		})
		if err != nil {
			logger.Error("Failed to create direct chat", logger.ErrorField(err))
			respondWithError(w, http.StatusInternalServerError, "failed to create chat")
			return
		}
		h.notifier.EmitToUsers(pair, wsgateway.EventRefetchChats, nil)
	}

	respondWithJSON(w, http.StatusOK, map[string]interface{}{
		"success": true,
		"status":  status,
	})
}

func (h *Handler) issueSession(w http.ResponseWriter, user *models.User, code int) {
	token, err := h.tokens.Issue(user.ID)
	if err != nil {
		logger.Error("Failed to issue token", logger.ErrorField(err))
		respondWithError(w, http.StatusInternalServerError, "failed to issue token")
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     h.tokens.CookieName(),
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(24 * time.Hour),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	respondWithJSON(w, code, map[string]interface{}{
		"success": true,
		"user":    user,
		"token":   token,
	})
}

func isMember(members []models.ChatMember, userID string) bool {
	for _, m := range members {
		if m.User == userID {
			return true
		}
	}
	return false
}
