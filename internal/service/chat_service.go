package service

import (
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"time"

	"studyhub/internal/apperr"
	"studyhub/internal/model"
	"studyhub/internal/realtime"
	"studyhub/internal/repository"
	"studyhub/pkg/config"
	"studyhub/pkg/logger"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// 附件大小上限的兜底值：10MB
const defaultMaxAttachmentBytes = 10 << 20

// 待发送的附件
type Attachment struct {
	Name        string
	ContentType string
	Data        []byte
}

// ChatService 维护群组消息日志的写入路径。
// 消息在发送者自己的视图里出现也走realtime回流，不做本地乐观追加，
// 日志的最终状态永远是存储+feed给出的那份。
type ChatService struct {
	feed        realtime.Feed
	messageRepo *repository.MessageRepository
	memberRepo  *repository.GroupMemberRepository
	blobs       BlobStore
}

func NewChatService(feed realtime.Feed, messageRepo *repository.MessageRepository, memberRepo *repository.GroupMemberRepository, blobs BlobStore) *ChatService {
	return &ChatService{
		feed:        feed,
		messageRepo: messageRepo,
		memberRepo:  memberRepo,
		blobs:       blobs,
	}
}

// SendMessage 发送消息，正文和附件至少要有其一。
// 附件先于消息行上传，上传失败直接中止（不会产生消息行）；
// 上传成功但插入失败时的孤儿blob是接受的泄漏，不做两阶段回滚。
func (s *ChatService) SendMessage(senderID, groupID uint, content string, attachment *Attachment) (*model.Message, error) {
	if senderID == 0 {
		return nil, apperr.ErrUnauthenticated
	}

	isMember, err := s.memberRepo.IsMember(groupID, senderID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, apperr.ErrForbidden
	}

	if strings.TrimSpace(content) == "" && attachment == nil {
		return nil, fmt.Errorf("%w: message needs content or an attachment", apperr.ErrValidation)
	}

	message := &model.Message{
		GroupID: groupID,
		UserID:  senderID,
		Content: content,
	}

	if attachment != nil {
		// 大小上限在任何上传动作之前就地拒绝
		maxBytes := config.GlobalConfig.Storage.MaxAttachmentBytes
		if maxBytes <= 0 {
			maxBytes = defaultMaxAttachmentBytes
		}
		if int64(len(attachment.Data)) > maxBytes {
			return nil, fmt.Errorf("%w: attachment exceeds %d bytes", apperr.ErrValidation, maxBytes)
		}
		if len(attachment.Data) == 0 && strings.TrimSpace(content) == "" {
			return nil, fmt.Errorf("%w: message needs content or an attachment", apperr.ErrValidation)
		}

		path := blobPath(senderID, attachment.Name)
		if err := s.blobs.Upload(path, attachment.Data); err != nil {
			// 上传失败中止发送，消息行不落库。存储故障可重试，归为瞬态错误
			logger.L.Error("Failed to upload attachment",
				zap.Uint("senderID", senderID), zap.String("path", path), zap.Error(err))
			return nil, fmt.Errorf("%w: attachment upload failed", apperr.ErrTransient)
		}

		message.FileURL = s.blobs.PublicURL(path)
		message.FileName = attachment.Name
		message.FileType = attachmentContentType(attachment)
	}

	if err := s.messageRepo.Create(message); err != nil {
		logger.L.Error("Error saving message to DB",
			zap.Uint("senderID", senderID),
			zap.Uint("groupID", groupID),
			zap.Error(err))
		return nil, fmt.Errorf("failed to save message: %w", err)
	}
	logger.L.Debug("Message saved to DB", zap.Uint("messageID", message.ID))

	// 行已提交，事件发布失败由订阅方对账补偿，不影响本次操作的结果
	event, err := realtime.NewEvent(realtime.TableMessages, realtime.OpInsert, message)
	if err != nil {
		logger.L.Error("Failed to build message event", zap.Error(err))
		return message, nil
	}
	if err := s.feed.Publish(event); err != nil {
		logger.L.Warn("Failed to publish message event",
			zap.Uint("messageID", message.ID), zap.Error(err))
	}

	return message, nil
}

// History 返回群组聊天记录，按created_at升序
func (s *ChatService) History(requesterID, groupID uint, limit, offset int) ([]model.Message, error) {
	isMember, err := s.memberRepo.IsMember(groupID, requesterID)
	if err != nil {
		return nil, fmt.Errorf("failed to check membership: %w", err)
	}
	if !isMember {
		return nil, apperr.ErrForbidden
	}
	return s.messageRepo.FindByGroupID(groupID, limit, offset)
}

// blob路径按 上传者ID/时间戳_随机后缀_文件名 命名避免冲突
func blobPath(userID uint, name string) string {
	safeName := strings.ReplaceAll(name, "/", "_")
	safeName = strings.ReplaceAll(safeName, " ", "_")
	suffix := uuid.NewString()[:8]
	return fmt.Sprintf("user_%d/%d_%s_%s", userID, time.Now().UnixNano(), suffix, safeName)
}

func attachmentContentType(attachment *Attachment) string {
	if attachment.ContentType != "" {
		return attachment.ContentType
	}
	if t := mime.TypeByExtension(filepath.Ext(attachment.Name)); t != "" {
		return t
	}
	return "application/octet-stream"
}
