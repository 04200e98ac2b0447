// Command tonectl is the client driver (§6.4): it turns a natural-language
// tone request into a set_tone command by calling an LLM provider (§6.3),
// running it through the full deterministic pipeline (§4.5) once, here, to
// resolve the LLM's loose values against the handshake's probed metadata,
// then sends the already-resolved params over the control WebSocket (§6.2)
// so the sidecar only has to sanitize and clean them. Grounded on main.go's
// env-load/config/observability wiring, generalized from an HTTP server
// bootstrap to a single-shot CLI run.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/joho/godotenv"

	"github.com/tonebridge/reaper-sidecar/internal/config"
	"github.com/tonebridge/reaper-sidecar/internal/llm"
	"github.com/tonebridge/reaper-sidecar/internal/models"
	"github.com/tonebridge/reaper-sidecar/internal/pipeline"
	"github.com/tonebridge/reaper-sidecar/internal/protocol"
)

const (
	dialTimeout  = 5 * time.Second
	ackTimeout   = 10 * time.Second
	maxDialTries = 3
)

const systemPrompt = `You shape the tone of a guitar amp/cab/effects plugin by emitting a JSON object
{"reasoning": string, "params": [{"index": int, "value": number|string}]} describing the
parameter changes that would realize the user's request. Use string values (e.g. "-6 dB",
"clean", "1.2 kHz") when a parameter is better expressed in its own units; use numbers only
for already-normalized [0,1] values.`

func main() {
	prompt := flag.String("prompt", "", "tone request text")
	promptFile := flag.String("prompt-file", "", "path to a file containing the tone request text")
	targetGUID := flag.String("target-guid", "", "fx_guid to target; defaults to the first handshake instance")
	wsURL := flag.String("ws-url", "", "control websocket URL; defaults to ws://<config WSHost>:<config WSPort>")
	previewOnly := flag.Bool("preview-only", false, "run the pipeline and print the diff without writing to the DAW")
	noWS := flag.Bool("no-ws", false, "skip the socket entirely; implies preview-only against an empty resolve context")
	mode := flag.String("mode", string(models.MergeModeMerge), "merge|replace_active")
	model := flag.String("model", "gpt-4o-mini", "LLM model name; a \"gemini\" prefix selects the Gemini provider")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	cfg := config.Load()

	userPrompt, err := readPrompt(*prompt, *promptFile)
	if err != nil {
		fail("invalid prompt: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	proposal, err := proposeTone(ctx, cfg, *model, userPrompt)
	if err != nil {
		fail("llm call failed: %v", err)
	}
	if proposal.Reasoning != "" {
		fmt.Println("reasoning:", proposal.Reasoning)
	}

	params := make([]models.AiParamChange, 0, len(proposal.Params))
	for _, p := range proposal.Params {
		params = append(params, models.AiParamChange{Index: p.Index, Value: p.Value})
	}

	resolveContext := pipeline.ResolveContext{}
	var conn *websocket.Conn
	var sessionToken string
	var fxGUID string

	if !*noWS {
		url := *wsURL
		if url == "" {
			url = fmt.Sprintf("ws://%s:%d", cfg.WSHost, cfg.WSPort)
		}
		conn, err = dialWithBackoff(url)
		if err != nil {
			fail("could not connect: %v", err)
		}
		defer conn.Close()

		hs, err := awaitHandshake(conn)
		if err != nil {
			fail("handshake failed: %v", err)
		}
		sessionToken = hs.SessionToken
		resolveContext = pipeline.ResolveContext{
			Enums:   map[int][]models.EnumOption(hs.ParamEnums),
			Formats: map[int]models.FormatTriplet(hs.ParamFormats),
			Samples: map[int][]models.FormatSample(hs.ParamFormatSamples),
		}

		fxGUID = *targetGUID
		if fxGUID == "" && len(hs.Instances) > 0 {
			fxGUID = hs.Instances[0].FxGUID
		}
		if fxGUID == "" {
			fail("no target fx_guid given and handshake reported no instances")
		}

		if err := conn.WriteJSON(protocol.HandshakeAckCmd{
			Type:         protocol.TypeHandshakeAck,
			SessionToken: sessionToken,
		}); err != nil {
			fail("failed to ack handshake: %v", err)
		}
	}

	// Resolve once, here: sanitize -> value-resolve -> clean -> diff against
	// the probed handshake metadata. Pipeline errors fail the call before
	// ever touching the socket (§7 Propagation). The resolved params, not
	// the LLM's loose ones, are what go out on the wire.
	out, err := pipeline.Run(pipeline.Input{
		Mode:    models.MergeMode(*mode),
		Params:  params,
		Context: resolveContext,
	})
	if err != nil {
		fail("pipeline rejected proposal: %v", err)
	}
	printDiff(out.Diff)

	if *previewOnly || *noWS {
		return
	}

	cmd := protocol.SetToneCmd{
		Type:         protocol.TypeSetTone,
		SessionToken: sessionToken,
		CommandID:    uuid.NewString(),
		TargetFxGUID: fxGUID,
		Mode:         models.MergeMode(*mode),
		Params:       out.Applied,
	}
	if err := conn.WriteJSON(cmd); err != nil {
		fail("failed to send set_tone: %v", err)
	}

	reply, err := awaitReply(conn, cmd.CommandID)
	if err != nil {
		fail("no reply: %v", err)
	}

	switch m := reply.(type) {
	case protocol.AckMsg:
		fmt.Println("applied:")
		for _, p := range m.AppliedParams {
			fmt.Printf("  [%d] %s (requested %.4f, applied %.4f)\n", p.Index, p.Formatted, p.Requested, p.Applied)
		}
	case protocol.ErrorMsg:
		fmt.Fprintf(os.Stderr, "server error (%s): %s\n", m.Code, m.Msg)
		os.Exit(1)
	}
}

func proposeTone(ctx context.Context, cfg *config.Config, model, userPrompt string) (*llm.ToneProposal, error) {
	factory := llm.NewProviderFactory(cfg.OpenAIAPIKey, cfg.GeminiAPIKey)
	provider, err := factory.GetProvider(ctx, model)
	if err != nil {
		return nil, err
	}
	return provider.Propose(ctx, systemPrompt, userPrompt)
}

func readPrompt(prompt, promptFile string) (string, error) {
	if promptFile != "" {
		data, err := os.ReadFile(promptFile)
		if err != nil {
			return "", err
		}
		return string(data), nil
	}
	if prompt == "" {
		return "", fmt.Errorf("one of --prompt or --prompt-file is required")
	}
	return prompt, nil
}

func dialWithBackoff(url string) (*websocket.Conn, error) {
	backoff := 250 * time.Millisecond
	var lastErr error
	for attempt := 0; attempt < maxDialTries; attempt++ {
		dialer := websocket.Dialer{HandshakeTimeout: dialTimeout}
		conn, _, err := dialer.Dial(url, nil)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		time.Sleep(backoff)
		backoff *= 2
	}
	return nil, lastErr
}

func awaitHandshake(conn *websocket.Conn) (protocol.HandshakeMsg, error) {
	_, data, err := conn.ReadMessage()
	if err != nil {
		return protocol.HandshakeMsg{}, err
	}
	msg, err := protocol.ParseServerMessage(data)
	if err != nil {
		return protocol.HandshakeMsg{}, err
	}
	hs, ok := msg.(protocol.HandshakeMsg)
	if !ok {
		return protocol.HandshakeMsg{}, fmt.Errorf("expected handshake, got %T", msg)
	}
	return hs, nil
}

// awaitReply reads server messages until an Ack/Error arrives; project_changed
// notifications in between are logged and skipped.
func awaitReply(conn *websocket.Conn, commandID string) (protocol.ServerMessage, error) {
	_ = conn.SetReadDeadline(time.Now().Add(ackTimeout))
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			return nil, err
		}
		msg, err := protocol.ParseServerMessage(data)
		if err != nil {
			return nil, err
		}
		switch m := msg.(type) {
		case protocol.AckMsg:
			if m.CommandID == commandID {
				return m, nil
			}
		case protocol.ErrorMsg:
			return m, nil
		case protocol.ProjectChangedMsg:
			log.Println("project_changed received while awaiting ack; instance lookup may be stale")
		}
	}
}

func printDiff(items []models.DiffItem) {
	if len(items) == 0 {
		fmt.Println("diff: (no changes)")
		return
	}
	fmt.Println("diff:")
	for _, d := range items {
		switch {
		case d.Old == nil:
			fmt.Printf("  %s [%d]: -> %.4f\n", d.Label, d.Index, *d.New)
		case d.New == nil:
			fmt.Printf("  %s [%d]: %.4f -> (removed)\n", d.Label, d.Index, *d.Old)
		default:
			fmt.Printf("  %s [%d]: %.4f -> %.4f\n", d.Label, d.Index, *d.Old, *d.New)
		}
	}
}

func fail(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}
