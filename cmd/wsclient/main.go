// Command wsclient streams a WAV file to the interpretation WebSocket and
// prints everything the service pushes back.
package main

import (
	"encoding/base64"
	"encoding/binary"
	"flag"
	"io"
	"log"
	"net/url"
	"os"
	"time"

	"github.com/gorilla/websocket"
)

// WAV header is 44 bytes for standard PCM files
const wavHeaderSize = 44

// Stream audio in chunks to simulate real-time streaming.
// At 16kHz 16-bit mono = 32000 bytes/second, 100ms chunks = 3200 bytes.
const chunkSize = 3200
const chunkIntervalMs = 100

func main() {
	audioFile := flag.String("audio", "testdata/sample-16khz.wav", "Path to WAV file (16kHz 16-bit mono)")
	serverAddr := flag.String("server", "localhost:8080", "Service address")
	sourceLang := flag.String("source", "en", "Source language")
	targetLang := flag.String("target", "es", "Target language")
	sessionID := flag.String("session", "test-"+time.Now().Format("150405"), "Session ID")
	flag.Parse()

	f, err := os.Open(*audioFile)
	if err != nil {
		log.Fatalf("Failed to open audio file: %v", err)
	}
	defer f.Close()

	header := make([]byte, wavHeaderSize)
	if _, err := io.ReadFull(f, header); err != nil {
		log.Fatalf("Failed to read WAV header: %v", err)
	}
	if string(header[0:4]) != "RIFF" || string(header[8:12]) != "WAVE" {
		log.Fatal("Not a valid WAV file")
	}

	audioFormat := binary.LittleEndian.Uint16(header[20:22])
	sampleRate := binary.LittleEndian.Uint32(header[24:28])
	log.Printf("WAV file: format=%d sampleRate=%d", audioFormat, sampleRate)
	if audioFormat != 1 { // PCM
		log.Fatal("Only PCM format supported")
	}
	if sampleRate != 16000 {
		log.Printf("Warning: Sample rate is %d Hz, expected 16000 Hz", sampleRate)
	}

	u := url.URL{
		Scheme: "ws",
		Host:   *serverAddr,
		Path:   "/v1/interpret",
		RawQuery: url.Values{
			"sourceLanguage": {*sourceLang},
			"targetLanguage": {*targetLang},
			"sessionId":      {*sessionID},
		}.Encode(),
	}

	conn, _, err := websocket.DefaultDialer.Dial(u.String(), nil)
	if err != nil {
		log.Fatalf("Failed to connect: %v", err)
	}
	defer conn.Close()
	log.Printf("Connected: sessionId=%s %s->%s", *sessionID, *sourceLang, *targetLang)

	// Print everything the service pushes back.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for {
			var msg map[string]any
			if err := conn.ReadJSON(&msg); err != nil {
				return
			}
			switch msg["type"] {
			case "transcription":
				log.Printf("[transcript partial=%v] %v", msg["isPartial"], msg["text"])
			case "interpretation":
				log.Printf("[interpretation] %v -> %v (classification=%v confidence=%v review=%v)",
					msg["text"], msg["translatedText"], msg["classification"], msg["confidence"], msg["needsHumanReview"])
			default:
				log.Printf("[%v] %v", msg["type"], msg)
			}
		}
	}()

	chunk := make([]byte, chunkSize)
	var totalBytes int64
	var chunkNum int
	for {
		n, err := f.Read(chunk)
		if err == io.EOF {
			break
		}
		if err != nil {
			log.Fatalf("Failed to read audio: %v", err)
		}

		chunkNum++
		totalBytes += int64(n)

		msg := map[string]string{
			"type":      "audio-chunk",
			"audioData": base64.StdEncoding.EncodeToString(chunk[:n]),
		}
		if err := conn.WriteJSON(msg); err != nil {
			log.Fatalf("Failed to send chunk: %v", err)
		}
		if chunkNum%10 == 0 {
			log.Printf("Sent chunk %d (%d bytes total)", chunkNum, totalBytes)
		}

		time.Sleep(chunkIntervalMs * time.Millisecond)
	}

	log.Printf("Finished streaming %d chunks, waiting for final results...", chunkNum)
	time.Sleep(3 * time.Second)

	conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
	select {
	case <-done:
	case <-time.After(2 * time.Second):
	}
}
