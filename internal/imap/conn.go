package imap

import (
	"bufio"
	"log"
	"net"
	"strings"
	"sync"
)

// conn serializes writes to one client connection. The IDLE push path writes
// from the store's goroutine while the command loop writes replies, so every
// send takes the write lock.
type conn struct {
	netConn net.Conn
	reader  *bufio.Reader

	writeMu sync.Mutex
	writer  *bufio.Writer
}

func newConn(netConn net.Conn) *conn {
	return &conn{
		netConn: netConn,
		reader:  bufio.NewReader(netConn),
		writer:  bufio.NewWriter(netConn),
	}
}

// Send writes one CRLF-terminated response line (or a literal-carrying
// response assembled by the caller).
func (c *conn) Send(response string) {
	c.writeMu.Lock()
	defer c.writeMu.Unlock()

	if !strings.HasSuffix(response, "\r\n") {
		response += "\r\n"
	}

	if _, err := c.writer.WriteString(response); err != nil {
		log.Printf("IMAP write error to %s: %v", c.netConn.RemoteAddr(), err)
		return
	}
	if err := c.writer.Flush(); err != nil {
		log.Printf("IMAP flush error to %s: %v", c.netConn.RemoteAddr(), err)
	}
}

// ReadLine reads one command line, trimming the line terminator
func (c *conn) ReadLine() (string, error) {
	line, err := c.reader.ReadString('\n')
	if err != nil {
		return "", err
	}
	return strings.TrimRight(line, "\r\n"), nil
}
