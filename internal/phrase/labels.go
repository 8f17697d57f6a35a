package phrase

// bankLabels maps the documented raw_bank range (0-8) to a human-readable
// section name. Values outside this range are observed in the wild
// (0xf3, 0xf9) and must resolve to a nil label rather than fail decoding.
var bankLabels = map[uint8]string{
	0: "intro",
	1: "up",
	2: "down",
	3: "chorus",
	4: "verse",
	5: "bridge",
	6: "outro",
	7: "break",
	8: "buildup",
}

func bankLabel(raw uint8) *string {
	if l, ok := bankLabels[raw]; ok {
		return &l
	}
	return nil
}

// phraseLabels combines mood and the entry's raw kind byte into the
// published human-readable phrase name. An unrecognized (mood, kind)
// pair leaves the label empty ("") rather than failing decoding (§7 Recoverable).
var phraseLabels = map[Mood]map[uint8]string{
	MoodHigh: {1: "intro", 2: "up", 3: "down", 4: "chorus", 5: "outro"},
	MoodMid:  {1: "intro", 2: "verse", 3: "chorus", 4: "bridge", 5: "outro"},
	MoodLow:  {1: "intro", 2: "verse1", 3: "verse2", 4: "verse3", 5: "outro"},
}

func phraseLabel(mood Mood, kind uint8) string {
	byKind, ok := phraseLabels[mood]
	if !ok {
		return ""
	}
	return byKind[kind]
}
