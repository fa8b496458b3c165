// Package protocol parses the inline markup the advisor model embeds in its
// replies: a `[STAGE: x]` marker and an `[IMAGE: {...}]` scene directive.
package protocol

import (
	"bytes"
	"encoding/json"
	"strings"
)

// ScenePayload describes an illustration requested by the model.
type ScenePayload struct {
	SceneGoal          string   `json:"scene_goal"`
	Hero               string   `json:"hero"`
	SupportingElements []string `json:"supporting_elements"`
	ContextCue         string   `json:"context_cue"`
	Emotion            string   `json:"emotion"`
	Label              string   `json:"label,omitempty"`

	// Raw is the object exactly as decoded, extra keys included.
	Raw json.RawMessage `json:"-"`
}

// UnmarshalJSON accepts any JSON object. Known fields are filled when their
// type fits and ignored otherwise; supporting_elements may also be a single
// comma-separated string.
func (p *ScenePayload) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return err
	}
	if fields == nil {
		return nil
	}

	var raw bytes.Buffer
	if err := json.Compact(&raw, data); err != nil {
		return err
	}
	*p = ScenePayload{
		SceneGoal:          stringField(fields["scene_goal"]),
		Hero:               stringField(fields["hero"]),
		SupportingElements: listField(fields["supporting_elements"]),
		ContextCue:         stringField(fields["context_cue"]),
		Emotion:            stringField(fields["emotion"]),
		Label:              stringField(fields["label"]),
		Raw:                raw.Bytes(),
	}
	return nil
}

func stringField(raw json.RawMessage) string {
	var s string
	if json.Unmarshal(raw, &s) != nil {
		return ""
	}
	return s
}

func listField(raw json.RawMessage) []string {
	var list []string
	if json.Unmarshal(raw, &list) == nil {
		return list
	}

	var out []string
	var joined string
	if json.Unmarshal(raw, &joined) == nil {
		for _, item := range strings.Split(joined, ",") {
			if item = strings.TrimSpace(item); item != "" {
				out = append(out, item)
			}
		}
		return out
	}

	var mixed []any
	if json.Unmarshal(raw, &mixed) == nil {
		for _, item := range mixed {
			if s, ok := item.(string); ok {
				out = append(out, s)
			}
		}
	}
	return out
}

// Reply is a model reply split into its stage marker, the text before the
// image directive, the scene itself, and the text after it.
type Reply struct {
	Stage  Stage
	Before string
	Image  *ScenePayload
	After  string
}

// HasStage reports whether the reply carried a known stage marker.
func (r Reply) HasStage() bool { return r.Stage != "" }

// Parse extracts the stage marker and image directive from raw.
//
// The first well-formed stage marker is removed from the text whether or not
// its identifier is known. Text around the first image directive becomes
// Before and After. Any syntactically valid object is accepted as the scene.
// If the directive's JSON is malformed, the remaining text, directive
// included, is returned as Before with no image.
func Parse(raw string) Reply {
	var (
		reply    Reply
		before   strings.Builder
		after    strings.Builder
		imageTok *Token
	)

	tokens := Tokenize(raw)
	for i := range tokens {
		tok := tokens[i]
		switch tok.Kind {
		case TokenStage:
			if stage, ok := ParseStage(tok.Identifier); ok {
				reply.Stage = stage
			}
		case TokenImage:
			imageTok = &tokens[i]
		default:
			if imageTok == nil {
				before.WriteString(tok.Text)
			} else {
				after.WriteString(tok.Text)
			}
		}
	}

	if imageTok == nil {
		reply.Before = strings.TrimSpace(before.String())
		return reply
	}

	var payload ScenePayload
	if err := json.Unmarshal([]byte(imageTok.JSON), &payload); err != nil {
		reply.Before = strings.TrimSpace(before.String() + imageTok.Text + after.String())
		return reply
	}

	reply.Before = strings.TrimSpace(before.String())
	reply.Image = &payload
	reply.After = strings.TrimSpace(after.String())
	return reply
}
