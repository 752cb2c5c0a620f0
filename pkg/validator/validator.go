package validator

import (
	"encoding/hex"
	"math"
	"net/url"
	"regexp"
	"strings"
)

type ValidationErrors map[string]string

func (v ValidationErrors) HasErrors() bool {
	return len(v) > 0
}

func (v ValidationErrors) Add(field, message string) {
	v[field] = message
}

const (
	maxIDLength      = 128
	maxNameLength    = 100
	maxBioLength     = 1000
	maxTags          = 20
	maxTagLength     = 50
	maxCommentLength = 2000
	publicKeyHexLen  = 64
)

var agentIDRegex = regexp.MustCompile(`^[a-zA-Z0-9_.:-]+$`)

func ValidateRegister(id, name, publicKey string) ValidationErrors {
	errs := make(ValidationErrors)

	validateAgentID("id", id, errs)

	name = strings.TrimSpace(name)
	if name == "" {
		errs.Add("name", "Name is required")
	} else if len(name) > maxNameLength {
		errs.Add("name", "Name is too long")
	}

	if publicKey == "" {
		errs.Add("public_key", "Public key is required")
	} else if _, err := hex.DecodeString(publicKey); err != nil || len(publicKey) != publicKeyHexLen {
		errs.Add("public_key", "Public key must be 32 bytes of hex")
	}

	return errs
}

func ValidateUpdate(name, bio string, tags []string, socialLinks map[string]string) ValidationErrors {
	errs := make(ValidationErrors)

	if len(name) > maxNameLength {
		errs.Add("name", "Name is too long")
	}
	if len(bio) > maxBioLength {
		errs.Add("bio", "Bio is too long")
	}

	if len(tags) > maxTags {
		errs.Add("tags", "Too many tags")
	}
	for _, tag := range tags {
		if strings.TrimSpace(tag) == "" {
			errs.Add("tags", "Tags cannot be empty")
			break
		}
		if len(tag) > maxTagLength || strings.Contains(tag, ",") {
			errs.Add("tags", "Tags must be short and cannot contain commas")
			break
		}
	}

	for platform, link := range socialLinks {
		if platform == "" || link == "" {
			errs.Add("social_links", "Social links need a platform and a value")
			break
		}
	}

	return errs
}

func ValidateReview(reviewerID, targetID, comment string) ValidationErrors {
	errs := make(ValidationErrors)

	validateAgentID("reviewer_id", reviewerID, errs)
	validateAgentID("target_id", targetID, errs)

	if len(comment) > maxCommentLength {
		errs.Add("comment", "Comment is too long")
	}

	return errs
}

func ValidateVerify(agentID, platform, proofURL string) ValidationErrors {
	errs := make(ValidationErrors)

	validateAgentID("agent_id", agentID, errs)

	if strings.TrimSpace(platform) == "" {
		errs.Add("platform", "Platform is required")
	}

	if proofURL == "" {
		errs.Add("proof_url", "Proof URL is required")
	} else if u, err := url.Parse(proofURL); err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		errs.Add("proof_url", "Proof URL must be an http(s) URL")
	}

	return errs
}

func ValidateStake(agentID, txHash string, amount float64) ValidationErrors {
	errs := make(ValidationErrors)

	validateAgentID("agent_id", agentID, errs)

	if txHash == "" {
		errs.Add("tx_hash", "Transaction hash is required")
	}

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		errs.Add("amount", "Amount must be a number")
	} else if amount < 0 {
		errs.Add("amount", "Amount cannot be negative")
	}

	return errs
}

func validateAgentID(field, id string, errs ValidationErrors) {
	switch {
	case id == "":
		errs.Add(field, "Agent id is required")
	case len(id) > maxIDLength:
		errs.Add(field, "Agent id is too long")
	case !agentIDRegex.MatchString(id):
		errs.Add(field, "Agent id can only contain letters, numbers, _ . : and -")
	}
}
