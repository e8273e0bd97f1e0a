// Package client contains the task-deletion flow shared by every front-end
// (terminal CLI, WebAssembly page) and the HTTP API it talks to.
package client

import (
	"context"
	"errors"
	"fmt"

	"student-tracker/internal/logger"

	"github.com/tidwall/gjson"
)

const (
	ConfirmPrompt = "Delete this task?"
	FailedMessage = "Failed to delete task. Check the log for details."
)

// Confirmer спрашивает пользователя; false - отказ
type Confirmer interface {
	Confirm(prompt string) bool
}

// Notifier блокирующее уведомление пользователя
type Notifier interface {
	Alert(msg string)
}

// Document отображаемый список задач
type Document interface {
	// Remove удаляет элемент; false, если элемента нет
	Remove(elementID string) bool
	// Reload перерисовывает документ целиком
	Reload()
}

type Outcome int

const (
	Declined Outcome = iota
	Removed
	Reloaded
	Rejected
	Failed
)

func (o Outcome) String() string {
	switch o {
	case Declined:
		return "declined"
	case Removed:
		return "removed"
	case Reloaded:
		return "reloaded"
	case Rejected:
		return "rejected"
	case Failed:
		return "failed"
	}
	return fmt.Sprintf("Outcome(%d)", int(o))
}

type transport interface {
	PostDelete(ctx context.Context, taskID string) ([]byte, error)
}

type Deleter struct {
	api     transport
	confirm Confirmer
	notify  Notifier
	doc     Document
}

func NewDeleter(api *API, confirm Confirmer, notify Notifier, doc Document) *Deleter {
	return &Deleter{api: api, confirm: confirm, notify: notify, doc: doc}
}

var errInvalidJSON = errors.New("response is not valid JSON")

// DeleteTask подтверждение -> POST -> удаление элемента или сообщение.
// Ошибки не возвращаются: пользователь видит alert, подробности уходят в лог.
func (d *Deleter) DeleteTask(ctx context.Context, taskID string) Outcome {
	if !d.confirm.Confirm(ConfirmPrompt) {
		return Declined
	}

	body, err := d.api.PostDelete(ctx, taskID)
	if err == nil && !gjson.ValidBytes(body) {
		err = errInvalidJSON
	}
	if err != nil {
		logger.Error(ctx, err, "deleteTask error", "taskID", taskID)
		d.notify.Alert(FailedMessage)
		return Failed
	}

	data := gjson.ParseBytes(body)
	if truthy(data.Get("success")) {
		if d.doc.Remove("task-" + taskID) {
			return Removed
		}
		d.doc.Reload()
		return Reloaded
	}

	msg := "unknown error"
	if e := data.Get("error"); truthy(e) {
		msg = e.String()
	}
	d.notify.Alert("Could not delete task: " + msg)
	return Rejected
}

// truthy истинность значения в духе JS: "", 0, null, false и отсутствие - ложь
func truthy(r gjson.Result) bool {
	switch r.Type {
	case gjson.True, gjson.JSON:
		return true
	case gjson.Number:
		return r.Num != 0
	case gjson.String:
		return r.Str != ""
	default:
		return false
	}
}
