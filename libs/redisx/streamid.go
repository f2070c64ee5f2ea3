package redisx

import (
	"fmt"
	"strconv"
	"strings"
)

// StreamID is a parsed stream entry id, "<millis>-<seq>". Ids of one stream
// are strictly increasing in (Millis, Seq) order.
type StreamID struct {
	Millis int64
	Seq    int64
}

func ParseStreamID(s string) (StreamID, error) {
	ms, seq, ok := strings.Cut(s, "-")
	if !ok {
		return StreamID{}, fmt.Errorf("stream id %q: missing sequence", s)
	}
	var id StreamID
	var err error
	if id.Millis, err = strconv.ParseInt(ms, 10, 64); err != nil || id.Millis < 0 {
		return StreamID{}, fmt.Errorf("stream id %q: bad millis", s)
	}
	if id.Seq, err = strconv.ParseInt(seq, 10, 64); err != nil || id.Seq < 0 {
		return StreamID{}, fmt.Errorf("stream id %q: bad sequence", s)
	}
	return id, nil
}

func (id StreamID) Less(o StreamID) bool {
	if id.Millis != o.Millis {
		return id.Millis < o.Millis
	}
	return id.Seq < o.Seq
}

func (id StreamID) String() string {
	return strconv.FormatInt(id.Millis, 10) + "-" + strconv.FormatInt(id.Seq, 10)
}
