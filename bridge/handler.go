// Copyright 2026 The sIBL Bridge Authors
// SPDX-License-Identifier: Apache-2.0

package bridge

import (
	"bytes"
	"io"
	"net"
	"unicode/utf8"

	"github.com/jedfrechette/sibl-gui-for-blender/lib/netutil"
)

// asciiSpace is the whitespace stripped from a payload. Unicode spaces
// such as U+00A0 are legal in file names and are kept.
const asciiSpace = " \t\n\r\v\f"

// ParsePayload turns one connection's bytes into a path: the bytes must
// be valid UTF-8 and are stripped of surrounding ASCII whitespace.
// Returns a *DecodeError for payloads that must be dropped.
func ParsePayload(data []byte) (string, error) {
	if !utf8.Valid(data) {
		return "", &DecodeError{Size: len(data), Err: ErrInvalidUTF8}
	}
	path := string(bytes.Trim(data, asciiSpace))
	if path == "" {
		return "", &DecodeError{Size: len(data), Err: ErrEmptyPayload}
	}
	return path, nil
}

// readPayload reads until the client closes, limit bytes arrive, or the
// connection's read deadline passes. Bytes received before a timeout
// are returned without error: the protocol has no framing, so a client
// that stalls after writing has still sent its message.
func readPayload(connection net.Conn, limit int) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(connection, int64(limit)))
	if err != nil {
		if len(data) > 0 && netutil.IsTimeout(err) {
			return data, nil
		}
		return data, err
	}
	return data, nil
}

// handleConnection services one accepted connection: read, parse, and
// on success overwrite the mailbox. Nothing is written back.
func (s *Server) handleConnection(connection net.Conn, connectionID int64) {
	defer connection.Close()

	logger := s.logger.With("connection_id", connectionID, "remote_addr", connection.RemoteAddr().String())
	logger.Debug("connection accepted")

	data, err := readPayload(connection, s.config.MaxPayloadSize)
	if err != nil {
		s.rejected.Add(1)
		if netutil.IsExpectedCloseError(err) {
			logger.Debug("connection closed before payload", "error", err)
		} else {
			logger.Warn("payload read failed", "error", err)
		}
		return
	}

	path, err := ParsePayload(data)
	if err != nil {
		s.rejected.Add(1)
		logger.Warn("payload dropped", "error", err)
		return
	}

	// The mailbox dies with the server; a read that finished during
	// shutdown is not delivered.
	if s.ctx.Err() != nil {
		s.rejected.Add(1)
		logger.Debug("payload discarded during shutdown", "path", path)
		return
	}

	s.pending.Write(path)
	s.delivered.Add(1)
	logger.Info("load requested", "path", path)
}
