package handlers

import (
	"errors"
	"fmt"
	"net/http"

	"mailbox-server/internal/services"
	"mailbox-server/internal/utils"

	"github.com/gin-gonic/gin"
)

// multipartOverhead is the slack allowed on top of the attachment size limit
// for multipart boundaries and part headers.
const multipartOverhead = 1 << 20

// MessageHandler handles mailbox requests for the authenticated user.
type MessageHandler struct {
	Messages *services.MessageService
	// MaxAttachmentBytes caps uploaded attachments. Zero means no limit.
	MaxAttachmentBytes int64
}

// NewMessageHandler creates a new MessageHandler.
func NewMessageHandler(messages *services.MessageService, maxAttachmentBytes int64) *MessageHandler {
	return &MessageHandler{Messages: messages, MaxAttachmentBytes: maxAttachmentBytes}
}

// SendMessageRequest represents the request body for sending a message.
type SendMessageRequest struct {
	ReceiverID uint   `json:"receiverId" binding:"required"`
	Subject    string `json:"subject" binding:"required"`
	Body       string `json:"body" binding:"required"`
	Folder     string `json:"folder"`
}

// SendMessage handles sending a new message.
func (h *MessageHandler) SendMessage(c *gin.Context) {
	var req SendMessageRequest
	if !utils.BindAndValidate(c, &req) {
		return
	}

	senderID, ok := currentUserID(c)
	if !ok {
		return
	}

	view, err := h.Messages.Send(c.Request.Context(), senderID, services.SendInput{
		ReceiverID: req.ReceiverID,
		Subject:    req.Subject,
		Body:       req.Body,
		Folder:     req.Folder,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	utils.Created(c, "Message sent successfully", view)
}

// GetInbox lists received messages, newest first.
func (h *MessageHandler) GetInbox(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	views, err := h.Messages.ListInbox(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Inbox fetched successfully", views)
}

// GetSent lists sent messages, newest first.
func (h *MessageHandler) GetSent(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	views, err := h.Messages.ListSent(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Sent messages fetched successfully", views)
}

// GetFolder lists received messages filed under the folder path parameter.
func (h *MessageHandler) GetFolder(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	folder := c.Param("folder")
	views, err := h.Messages.ListByFolder(c.Request.Context(), userID, folder)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, fmt.Sprintf("Folder %q fetched successfully", folder), views)
}

// GetFolders lists the folder names present in the inbox.
func (h *MessageHandler) GetFolders(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	folders, err := h.Messages.ListFolders(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Folders fetched successfully", folders)
}

// MarkRead marks a received message as read.
func (h *MessageHandler) MarkRead(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}

	view, err := h.Messages.MarkRead(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Message marked as read", view)
}

// DeleteMessage soft-deletes a message the caller sent or received.
func (h *MessageHandler) DeleteMessage(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}

	if err := h.Messages.DeleteMessage(c.Request.Context(), messageID, userID); err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Message deleted successfully", nil)
}

// UnreadCount returns the number of unread inbox messages.
func (h *MessageHandler) UnreadCount(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}

	count, err := h.Messages.UnreadCount(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Unread count fetched successfully", count)
}

// UploadAttachment attaches the multipart "file" part to a sent message.
func (h *MessageHandler) UploadAttachment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}

	if h.MaxAttachmentBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, h.MaxAttachmentBytes+multipartOverhead)
	}
	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			utils.RequestTooLarge(c, "Attachment exceeds the size limit")
			return
		}
		utils.BadRequest(c, "A multipart file field named \"file\" is required")
		return
	}
	if h.MaxAttachmentBytes > 0 && fileHeader.Size > h.MaxAttachmentBytes {
		utils.RequestTooLarge(c, "Attachment exceeds the size limit")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondError(c, fmt.Errorf("open uploaded file: %w", err))
		return
	}
	defer file.Close()

	view, err := h.Messages.AttachFile(c.Request.Context(), messageID, userID,
		fileHeader.Filename, fileHeader.Header.Get("Content-Type"), file)
	if err != nil {
		respondError(c, err)
		return
	}
	utils.Success(c, "Attachment uploaded successfully", view)
}

// DownloadAttachment streams a message's attachment to a participant.
func (h *MessageHandler) DownloadAttachment(c *gin.Context) {
	userID, ok := currentUserID(c)
	if !ok {
		return
	}
	messageID, ok := pathID(c, "id", "message")
	if !ok {
		return
	}

	content, name, err := h.Messages.OpenAttachment(c.Request.Context(), messageID, userID)
	if err != nil {
		respondError(c, err)
		return
	}
	defer content.Close()

	utils.Attachment(c, name, content)
}
