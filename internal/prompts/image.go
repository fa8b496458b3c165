package prompts

import (
	"bytes"
	"encoding/json"
	"fmt"

	"mxdrAdvisor/internal/protocol"
)

const (
	imageStyle    = `SYSTEM STYLE — LOCKED: Clean, modern enterprise cybersecurity illustration system. High-end SaaS visual language suitable for B2B and boardroom contexts. Flat plus subtle 3D hybrid with soft depth and smooth surfaces. Minimalist, uncluttered composition with excellent legibility. Restrained dark-mode palette with deep navy or charcoal background, subtle gradients, and accent colours limited to blue, cyan, and soft teal. Soft diffused studio lighting, gentle glow effects only where meaningful. Calm, professional, trustworthy tone. Perspective is straight-on or very slight isometric. Vector-like clarity, consistent line weight, studio-polished finish. No visual noise, no grunge, no photorealism, no branding.`
	imageRules    = `RENDERING RULES — LOCKED: Maintain consistency in colour, lighting, and proportions. Background must be a simple, clean gradient with no patterns. No text, no logos, no symbols that resemble real brands. If human figures appear, use simplified silhouettes only.`
	imageNegative = `NEGATIVE PROMPT: photorealistic face, uncanny valley, human skin texture, heavy realism, busy background, clutter, glitch effects, cyberpunk styling, neon overload, text, typography, logos, watermarks, brand names, harsh lighting, strong bloom, lens flare, blur, low resolution, jpeg artifacts, creepy expressions`
)

// AvatarScene is the portrait rendered for the advisor when a session starts.
var AvatarScene = protocol.ScenePayload{
	SceneGoal:          "Friendly AI security advisor portrait",
	Hero:               "abstract humanoid figure made of flowing digital particles and soft light",
	SupportingElements: []string{"shield motif integrated subtly", "warm glow", "professional yet approachable"},
	ContextCue:         "AI assistant",
	Emotion:            "welcoming and trustworthy",
}

// ImagePrompt wraps a scene payload in the locked style, rendering rules and
// negative prompt so every illustration shares one look. A payload decoded
// from a model reply is sent as the model wrote it, extra keys included.
func ImagePrompt(scene protocol.ScenePayload) (string, error) {
	payload, err := scenePayloadJSON(scene)
	if err != nil {
		return "", fmt.Errorf("encode scene payload: %w", err)
	}
	return fmt.Sprintf("%s\n\nSCENE PAYLOAD:\n%s\n\n%s\n\n%s", imageStyle, payload, imageRules, imageNegative), nil
}

func scenePayloadJSON(scene protocol.ScenePayload) ([]byte, error) {
	if len(scene.Raw) > 0 {
		var buf bytes.Buffer
		if err := json.Indent(&buf, scene.Raw, "", "  "); err != nil {
			return nil, err
		}
		return buf.Bytes(), nil
	}
	if scene.SupportingElements == nil {
		scene.SupportingElements = []string{}
	}
	return json.MarshalIndent(scene, "", "  ")
}
