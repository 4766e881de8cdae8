// Command compare-client sends prompts to a running model-compare server over
// its websocket and prints each completed turn side by side.
package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/satriahrh/model-compare/adapters/render"
	"github.com/satriahrh/model-compare/domain"
	"github.com/satriahrh/model-compare/utils/log"
)

func main() {
	serverURL := flag.String("url", "ws://localhost:8080/ws", "websocket endpoint of the compare server")
	width := flag.Int("width", 120, "terminal width used to lay out responses")
	flag.Parse()

	conn, _, err := websocket.DefaultDialer.Dial(*serverURL, nil)
	if err != nil {
		log.With().Fatal("failed to connect to server", zap.String("url", *serverURL), zap.Error(err))
	}
	defer conn.Close()

	go readEvents(conn, *width)

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		conn.Close()
		os.Exit(0)
	}()

	reader := bufio.NewReader(os.Stdin)
	fmt.Println("Ask something to compare AI responses (type 'exit' to quit):")
	for {
		fmt.Print("> ")
		text, err := reader.ReadString('\n')
		if err != nil {
			return
		}
		text = strings.TrimRight(text, "\r\n")
		if text == "exit" {
			return
		}
		if strings.TrimSpace(text) == "" {
			continue
		}
		msg := domain.PromptMessage{Type: domain.PromptMessageType, Content: text}
		if err := conn.WriteJSON(msg); err != nil {
			log.With().Error("sending prompt", zap.Error(err))
			return
		}
	}
}

func readEvents(conn *websocket.Conn, width int) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			log.With().Error("reading message", zap.Error(err))
			os.Exit(1)
		}
		var ev domain.ConversationEvent
		if err := json.Unmarshal(data, &ev); err != nil {
			continue
		}
		if out := describe(ev, width); out != "" {
			fmt.Println(out)
		}
	}
}

// describe turns an event into terminal output; events that carry nothing
// worth printing return "".
func describe(ev domain.ConversationEvent, width int) string {
	switch ev.Type {
	case domain.EventTurnResponse:
		return fmt.Sprintf("  ... %s answered", ev.Label)
	case domain.EventTurnCompleted:
		if ev.Turn == nil {
			return ""
		}
		return render.TurnText(*ev.Turn, width)
	case domain.EventHistoryCleared:
		return "History cleared."
	case domain.EventError:
		return "Error: " + ev.Content
	}
	return ""
}
