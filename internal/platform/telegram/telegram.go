// Package telegram implements the platform dispatch contract for Telegram
// chats and channels via the Bot API.
package telegram

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"

	tele "gopkg.in/telebot.v4"

	"crossposter/internal/platform"
	logx "crossposter/pkg/logx"
)

// Dispatcher posts to a Telegram chat identified by the "chat_id" credential
// (numeric id or @channelname) using the bot "token" credential.
//
// Bots are cached per token so repeated dispatch cycles don't re-handshake.
type Dispatcher struct {
	log logx.Logger

	mu   sync.Mutex
	bots map[string]*tele.Bot
}

func New(log logx.Logger) *Dispatcher {
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Dispatcher{log: log, bots: map[string]*tele.Bot{}}
}

func (d *Dispatcher) Post(ctx context.Context, content platform.Content, creds platform.Bundle) (platform.Result, error) {
	token := strings.TrimSpace(creds["token"])
	if token == "" {
		return platform.Result{}, errors.New("telegram: missing token credential")
	}
	chat := strings.TrimSpace(creds["chat_id"])
	if chat == "" {
		return platform.Result{}, errors.New("telegram: missing chat_id credential")
	}
	if err := ctx.Err(); err != nil {
		return platform.Result{}, err
	}

	bot, err := d.bot(token)
	if err != nil {
		return platform.Result{}, fmt.Errorf("telegram: %w", err)
	}

	to, username := recipient(chat)

	var msg *tele.Message
	if content.Media != "" {
		photo := &tele.Photo{File: mediaFile(content.Media), Caption: content.Text}
		msg, err = bot.Send(to, photo)
	} else {
		msg, err = bot.Send(to, content.Text)
	}
	if err != nil {
		return platform.Result{}, fmt.Errorf("telegram: %w", err)
	}

	res := platform.Result{Success: true, RemoteID: strconv.Itoa(msg.ID)}
	// Public channels get a canonical message link.
	if username != "" {
		res.RemoteID = fmt.Sprintf("https://t.me/%s/%d", username, msg.ID)
	}
	d.log.Debug("telegram message sent",
		logx.String("chat", chat),
		logx.Int("message_id", msg.ID),
	)
	return res, nil
}

func (d *Dispatcher) bot(token string) (*tele.Bot, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if b, ok := d.bots[token]; ok {
		return b, nil
	}
	// Offline skips the getMe handshake; send errors surface on first use.
	b, err := tele.NewBot(tele.Settings{Token: token, Offline: true})
	if err != nil {
		return nil, err
	}
	d.bots[token] = b
	return b, nil
}

// recipient resolves a chat reference to a telebot Recipient.
// Returns the bare channel username (without '@') when one was given.
func recipient(chat string) (tele.Recipient, string) {
	if n, err := strconv.ParseInt(chat, 10, 64); err == nil {
		return tele.ChatID(n), ""
	}
	name := strings.TrimPrefix(chat, "@")
	return chatName(chat), name
}

// chatName is a Recipient for @channel style targets.
type chatName string

func (c chatName) Recipient() string { return string(c) }

func mediaFile(ref string) tele.File {
	if strings.HasPrefix(ref, "http://") || strings.HasPrefix(ref, "https://") {
		return tele.FromURL(ref)
	}
	return tele.FromDisk(ref)
}
