package audio

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Channel is a speaker position in the realtime engine's channel-position
// enumeration. Positions are stable wire contract values; 0 and below are
// reserved for unknown/none markers.
type Channel int

// Named positions, in enumeration order starting at 3.
const (
	ChannelFL Channel = iota + 3
	ChannelFR
	ChannelFC
	ChannelLFE
	ChannelSL
	ChannelSR
	ChannelFLC
	ChannelFRC
	ChannelRC
	ChannelRL
	ChannelRR
	ChannelTC
	ChannelTFL
	ChannelTFC
	ChannelTFR
	ChannelTRL
	ChannelTRC
	ChannelTRR
	ChannelRLC
	ChannelRRC
	ChannelFLW
	ChannelFRW
	ChannelLFE2
	ChannelFLH
	ChannelFCH
	ChannelFRH
	ChannelTFLC
	ChannelTFRC
	ChannelTSL
	ChannelTSR
	ChannelLLFE
	ChannelRLFE
	ChannelBC
	ChannelBLC
	ChannelBRC
)

var channelNames = []string{
	"FL", "FR", "FC", "LFE", "SL", "SR", "FLC", "FRC", "RC", "RL", "RR",
	"TC", "TFL", "TFC", "TFR", "TRL", "TRC", "TRR", "RLC", "RRC", "FLW",
	"FRW", "LFE2", "FLH", "FCH", "FRH", "TFLC", "TFRC", "TSL", "TSR",
	"LLFE", "RLFE", "BC", "BLC", "BRC",
}

func channelByName(name string) (Channel, bool) {
	for i, n := range channelNames {
		if n == name {
			return ChannelFL + Channel(i), true
		}
	}
	return 0, false
}

func (c Channel) String() string {
	if i := int(c - ChannelFL); i >= 0 && i < len(channelNames) {
		return channelNames[i]
	}
	return "UNK"
}

// Config is the playback format announced by the server's first audio
// record: "<rate>:<channel>,<channel>,...".
type Config struct {
	Rate     int
	Channels []Channel
}

// FrameSize returns the byte stride of one interleaved S16LE frame.
func (c Config) FrameSize() int {
	return 2 * len(c.Channels)
}

// ParseConfig parses the textual configuration record.
func ParseConfig(s string) (Config, error) {
	rateStr, channels, ok := strings.Cut(s, ":")
	if !ok {
		return Config{}, errors.Errorf("audio: malformed config %q", s)
	}

	rate, err := strconv.Atoi(rateStr)
	if err != nil || (rate != 44100 && rate != 48000) {
		return Config{}, errors.Errorf("audio: unsupported rate %q", rateStr)
	}

	cfg := Config{Rate: rate}
	for _, name := range strings.Split(channels, ",") {
		ch, ok := channelByName(name)
		if !ok {
			return Config{}, errors.Errorf("audio: unknown channel %q", name)
		}
		cfg.Channels = append(cfg.Channels, ch)
	}
	if len(cfg.Channels) == 0 {
		return Config{}, errors.New("audio: empty channel map")
	}
	return cfg, nil
}
