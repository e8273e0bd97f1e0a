//go:build js && wasm

// Command wasm is the WebAssembly build of the task deletion flow: it installs
// a global deleteTask(id) that drives client.Deleter with the page's own
// confirm/alert dialogs and DOM.
package main

import (
	"context"
	"fmt"
	"syscall/js"

	"student-tracker/internal/client"
	"student-tracker/internal/logger"
)

type dialogs struct{}

func (dialogs) Confirm(prompt string) bool {
	return js.Global().Call("confirm", prompt).Bool()
}

func (dialogs) Alert(msg string) {
	js.Global().Call("alert", msg)
}

type dom struct{}

func (dom) Remove(elementID string) bool {
	el := js.Global().Get("document").Call("getElementById", elementID)
	if el.IsNull() || el.IsUndefined() {
		return false
	}
	el.Call("remove")
	return true
}

func (dom) Reload() {
	js.Global().Get("location").Call("reload")
}

func csrfToken() string {
	meta := js.Global().Get("document").Call("querySelector", `meta[name="csrf-token"]`)
	if meta.IsNull() || meta.IsUndefined() {
		return ""
	}
	return meta.Get("content").String()
}

func main() {
	origin := js.Global().Get("location").Get("origin").String()
	api, err := client.NewAPI(origin, nil)
	if err != nil {
		logger.Error(context.Background(), err, "Ошибка инициализации клиента")
		return
	}
	api.SetCSRFToken(csrfToken())

	deleter := client.NewDeleter(api, dialogs{}, dialogs{}, dom{})

	js.Global().Set("deleteTask", js.FuncOf(func(this js.Value, args []js.Value) interface{} {
		if len(args) == 0 {
			return nil
		}
		taskID := fmt.Sprint(args[0])
		if args[0].Type() == js.TypeNumber {
			taskID = fmt.Sprint(args[0].Int())
		} else if args[0].Type() == js.TypeString {
			taskID = args[0].String()
		}
		// HTTP в wasm блокирует горутину, поэтому не в колбэке
		go deleter.DeleteTask(context.Background(), taskID)
		return nil
	}))

	select {}
}
