package mail

import (
	"bufio"
	"context"
	"net"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRawHeaders(t *testing.T) {
	msg := To("a@x.com", "b@x.com").WithSubject("Order placed").WithText("hello")
	raw := string(Raw("noreply@farmlink.local", msg))

	assert.Contains(t, raw, "From: noreply@farmlink.local\r\n")
	assert.Contains(t, raw, "To: a@x.com, b@x.com\r\n")
	assert.Contains(t, raw, "Subject: Order placed\r\n")
	assert.Contains(t, raw, `Content-Type: text/plain; charset="UTF-8"`)
	assert.True(t, strings.HasSuffix(raw, "\r\n\r\nhello"))

	assert.Contains(t, string(Raw("f", msg.WithHTML("<b>hi</b>"))), "text/html")
}

func TestMemoryMailer(t *testing.T) {
	var m Memory
	require.NoError(t, m.Send(context.Background(), To("a@x.com").WithSubject("s")))
	sent := m.Sent()
	require.Len(t, sent, 1)
	assert.Equal(t, []string{"a@x.com"}, sent[0].To)
}

// fakeSMTP accepts one message and returns its DATA section.
func fakeSMTP(t *testing.T) (port int, data <-chan string) {
	t.Helper()
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	t.Cleanup(func() { ln.Close() })

	out := make(chan string, 1)
	go func() {
		conn, err := ln.Accept()
		if err != nil {
			return
		}
		defer conn.Close()
		r := bufio.NewReader(conn)
		write := func(s string) { conn.Write([]byte(s + "\r\n")) }

		write("220 localhost ESMTP")
		var body strings.Builder
		inData := false
		for {
			line, err := r.ReadString('\n')
			if err != nil {
				return
			}
			if inData {
				if line == ".\r\n" {
					inData = false
					out <- body.String()
					write("250 OK")
					continue
				}
				body.WriteString(line)
				continue
			}
			switch cmd := strings.ToUpper(strings.TrimSpace(line)); {
			case strings.HasPrefix(cmd, "EHLO"), strings.HasPrefix(cmd, "HELO"):
				write("250 localhost")
			case cmd == "DATA":
				inData = true
				write("354 go ahead")
			case cmd == "QUIT":
				write("221 bye")
				return
			default:
				write("250 OK")
			}
		}
	}()

	_, p, _ := net.SplitHostPort(ln.Addr().String())
	port, _ = strconv.Atoi(p)
	return port, out
}

func TestSMTPSend(t *testing.T) {
	port, data := fakeSMTP(t)
	m := NewSMTP(SMTPConfig{Host: "127.0.0.1", Port: port, From: "noreply@farmlink.local"})

	require.NoError(t, m.Send(context.Background(), To("v@x.com").WithSubject("Hi").WithText("body text")))
	got := <-data
	assert.Contains(t, got, "Subject: Hi")
	assert.Contains(t, got, "body text")
}

func TestSMTPRequiresRecipient(t *testing.T) {
	assert.Error(t, NewSMTP(SMTPConfig{}).Send(context.Background(), Message{}))
}
