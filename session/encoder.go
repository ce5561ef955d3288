package session

import (
	"bytes"
	"encoding/binary"
	"errors"
	"io"
)

const sessionFormatVersion1 = 1

// Encode serializes a Session into the versioned binary wire form. The
// SessionID is the Redis key and is not part of the payload.
func Encode(s *Session) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteByte(sessionFormatVersion1)

	if len(s.PrincipalID) > 255 {
		return nil, errors.New("principalID too long")
	}
	buf.WriteByte(byte(len(s.PrincipalID)))
	buf.WriteString(s.PrincipalID)

	if len(s.RoleID) > 255 {
		return nil, errors.New("roleID too long")
	}
	buf.WriteByte(byte(len(s.RoleID)))
	buf.WriteString(s.RoleID)

	if err := binary.Write(&buf, binary.BigEndian, s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Write(&buf, binary.BigEndian, s.ExpiresAt); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

func Decode(data []byte) (*Session, error) {
	reader := bytes.NewReader(data)

	version, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	if version != sessionFormatVersion1 {
		return nil, errors.New("invalid session version")
	}

	s := &Session{}

	principalLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	principalID := make([]byte, principalLen)
	if _, err := io.ReadFull(reader, principalID); err != nil {
		return nil, err
	}
	s.PrincipalID = string(principalID)

	roleLen, err := reader.ReadByte()
	if err != nil {
		return nil, err
	}
	roleID := make([]byte, roleLen)
	if _, err := io.ReadFull(reader, roleID); err != nil {
		return nil, err
	}
	s.RoleID = string(roleID)

	if err := binary.Read(reader, binary.BigEndian, &s.CreatedAt); err != nil {
		return nil, err
	}
	if err := binary.Read(reader, binary.BigEndian, &s.ExpiresAt); err != nil {
		return nil, err
	}

	return s, nil
}
