package mtproto

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/bnema/telegram-accounts-cli/internal/domain"
	"github.com/bnema/telegram-accounts-cli/internal/ports"
	"github.com/gotd/td/telegram"
	"github.com/gotd/td/telegram/auth"
	"github.com/gotd/td/telegram/message"
	"github.com/gotd/td/telegram/uploader"
	"github.com/gotd/td/tg"
	"github.com/rs/zerolog"
)

var errNotConnected = errors.New("client is not connected")

// Client keeps one gotd client running in the background between Connect
// and Disconnect so several calls can share one connection.
type Client struct {
	build  func() *telegram.Client
	logger zerolog.Logger

	mu      sync.Mutex
	client  *telegram.Client
	cancel  context.CancelFunc
	stopped chan struct{}
	runErr  error
}

var _ ports.ProtocolClient = (*Client)(nil)

func (c *Client) Connect(ctx context.Context) error {
	c.mu.Lock()
	if c.runningLocked() {
		c.mu.Unlock()
		return nil
	}

	client := c.build()
	runCtx, cancel := context.WithCancel(context.Background())
	ready := make(chan struct{})
	stopped := make(chan struct{})
	c.client, c.cancel, c.stopped, c.runErr = client, cancel, stopped, nil
	c.mu.Unlock()

	go func() {
		err := client.Run(runCtx, func(ctx context.Context) error {
			close(ready)
			<-ctx.Done()
			return nil
		})
		c.mu.Lock()
		c.runErr = err
		c.mu.Unlock()
		close(stopped)
	}()

	select {
	case <-ready:
		c.logger.Debug().Msg("connected")
		return nil
	case <-stopped:
		c.mu.Lock()
		err := c.runErr
		c.mu.Unlock()
		cancel()
		return translate(fmt.Errorf("connect: %w", err))
	case <-ctx.Done():
		cancel()
		<-stopped
		return ctx.Err()
	}
}

func (c *Client) Disconnect(ctx context.Context) error {
	c.mu.Lock()
	cancel, stopped := c.cancel, c.stopped
	c.cancel = nil
	c.mu.Unlock()

	if cancel == nil {
		return nil
	}
	cancel()

	select {
	case <-stopped:
	case <-ctx.Done():
		return ctx.Err()
	}

	c.mu.Lock()
	err := c.runErr
	c.mu.Unlock()
	if err != nil && !errors.Is(err, context.Canceled) {
		return translate(err)
	}
	return nil
}

func (c *Client) IsConnected() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.runningLocked()
}

func (c *Client) runningLocked() bool {
	if c.cancel == nil || c.stopped == nil {
		return false
	}
	select {
	case <-c.stopped:
		return false
	default:
		return true
	}
}

func (c *Client) active() (*telegram.Client, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.runningLocked() {
		return nil, errNotConnected
	}
	return c.client, nil
}

func (c *Client) IsAuthorized(ctx context.Context) (bool, error) {
	client, err := c.active()
	if err != nil {
		return false, err
	}
	status, err := client.Auth().Status(ctx)
	if err != nil {
		return false, translate(err)
	}
	return status.Authorized, nil
}

func (c *Client) SendCode(ctx context.Context, phone domain.Phone) (string, error) {
	client, err := c.active()
	if err != nil {
		return "", err
	}
	sent, err := client.Auth().SendCode(ctx, string(phone), auth.SendCodeOptions{})
	if err != nil {
		return "", translate(err)
	}
	code, ok := sent.(*tg.AuthSentCode)
	if !ok {
		return "", fmt.Errorf("unexpected send code response %T", sent)
	}
	return code.PhoneCodeHash, nil
}

func (c *Client) SignIn(ctx context.Context, phone domain.Phone, code, codeHash string) error {
	client, err := c.active()
	if err != nil {
		return err
	}
	if _, err := client.Auth().SignIn(ctx, string(phone), code, codeHash); err != nil {
		return translate(err)
	}
	return nil
}

func (c *Client) CheckPassword(ctx context.Context, password string) error {
	client, err := c.active()
	if err != nil {
		return err
	}
	if _, err := client.Auth().Password(ctx, password); err != nil {
		return translate(err)
	}
	return nil
}

func (c *Client) Self(ctx context.Context) (domain.Profile, error) {
	client, err := c.active()
	if err != nil {
		return domain.Profile{}, err
	}
	self, err := client.Self(ctx)
	if err != nil {
		return domain.Profile{}, translate(err)
	}
	return domain.Profile{
		DisplayName: domain.DisplayName(self.FirstName, self.LastName),
		Username:    self.Username,
		UserID:      int64(self.ID),
		Phone:       self.Phone,
	}, nil
}

func (c *Client) SendMessage(ctx context.Context, target, text string) error {
	client, err := c.active()
	if err != nil {
		return err
	}
	if _, err := resolve(client, target).Text(ctx, text); err != nil {
		return translate(err)
	}
	return nil
}

func (c *Client) SendFile(ctx context.Context, target, path string, voice bool) error {
	client, err := c.active()
	if err != nil {
		return err
	}

	file, err := uploader.NewUploader(client.API()).FromPath(ctx, path)
	if err != nil {
		return translate(fmt.Errorf("upload %s: %w", filepath.Base(path), err))
	}

	attributes := []tg.DocumentAttributeClass{&tg.DocumentAttributeFilename{FileName: filepath.Base(path)}}
	mimeType := mime.TypeByExtension(filepath.Ext(path))
	if voice {
		attributes = append(attributes, &tg.DocumentAttributeAudio{Voice: true})
		mimeType = "audio/ogg"
	}
	if mimeType == "" {
		mimeType = "application/octet-stream"
	}

	doc := message.UploadedDocument(file).MIME(mimeType).Attributes(attributes...)
	if _, err := resolve(client, target).Media(ctx, doc); err != nil {
		return translate(err)
	}
	return nil
}

func (c *Client) GetDialogs(ctx context.Context, limit int) (int, error) {
	client, err := c.active()
	if err != nil {
		return 0, err
	}
	resp, err := client.API().MessagesGetDialogs(ctx, &tg.MessagesGetDialogsRequest{
		OffsetPeer: &tg.InputPeerEmpty{},
		Limit:      limit,
	})
	if err != nil {
		return 0, translate(err)
	}

	switch dialogs := resp.(type) {
	case *tg.MessagesDialogs:
		return len(dialogs.Dialogs), nil
	case *tg.MessagesDialogsSlice:
		return dialogs.Count, nil
	case *tg.MessagesDialogsNotModified:
		return dialogs.Count, nil
	default:
		return 0, fmt.Errorf("unexpected dialogs response %T", resp)
	}
}

func (c *Client) GetEntity(ctx context.Context, target string) (ports.Entity, error) {
	client, err := c.active()
	if err != nil {
		return ports.Entity{}, err
	}
	peer, err := resolve(client, target).AsInputPeer(ctx)
	if err != nil {
		return ports.Entity{}, translate(err)
	}

	entity := ports.Entity{Username: strings.TrimPrefix(strings.TrimSpace(target), "@")}
	switch p := peer.(type) {
	case *tg.InputPeerUser:
		entity.ID = int64(p.UserID)
	case *tg.InputPeerChat:
		entity.ID = int64(p.ChatID)
	case *tg.InputPeerChannel:
		entity.ID = int64(p.ChannelID)
	case *tg.InputPeerSelf:
		entity.Title = "self"
	default:
		return ports.Entity{}, fmt.Errorf("unsupported peer %T", peer)
	}
	return entity, nil
}

type messageList interface {
	GetMessages() []tg.MessageClass
}

func (c *Client) RecentMessages(ctx context.Context, target string, limit int) ([]ports.Message, error) {
	client, err := c.active()
	if err != nil {
		return nil, err
	}
	peer, err := resolve(client, target).AsInputPeer(ctx)
	if err != nil {
		return nil, translate(err)
	}

	history, err := client.API().MessagesGetHistory(ctx, &tg.MessagesGetHistoryRequest{Peer: peer, Limit: limit})
	if err != nil {
		return nil, translate(err)
	}
	list, ok := history.(messageList)
	if !ok {
		return nil, nil
	}

	var out []ports.Message
	for _, raw := range list.GetMessages() {
		msg, ok := raw.(*tg.Message)
		if !ok {
			continue
		}
		out = append(out, ports.Message{
			ID:       msg.ID,
			Outgoing: msg.Out,
			Text:     msg.Message,
			HasMedia: msg.Media != nil,
			Date:     time.Unix(int64(msg.Date), 0),
		})
	}
	return out, nil
}

// resolve routes phone-number targets through contact import and
// everything else through username/link resolution.
func resolve(client *telegram.Client, target string) *message.RequestBuilder {
	sender := message.NewSender(client.API())
	trimmed := strings.TrimSpace(target)
	if isPhoneTarget(trimmed) {
		return sender.ResolvePhone(trimmed)
	}
	return sender.Resolve(strings.TrimPrefix(trimmed, "@"))
}

func isPhoneTarget(target string) bool {
	if !strings.HasPrefix(target, "+") || len(target) < 2 {
		return false
	}
	for _, r := range target[1:] {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
