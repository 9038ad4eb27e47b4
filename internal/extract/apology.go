package extract

import "fmt"

// Cause identifies why no summary could be produced from a document.
type Cause string

// Causes with a fixed explanation.
const (
	CauseEncrypted   Cause = "encrypted"
	CauseBinary      Cause = "binary"
	CauseUnsupported Cause = "unsupported"
	CauseCorrupted   Cause = "corrupted"
	CauseNetwork     Cause = "network"
	CauseEmpty       Cause = "empty"
)

var apologies = map[Cause]string{
	CauseEncrypted: "This document appears to be encrypted or password protected, so its content cannot be read. " +
		"Remove the protection and upload it again to get a summary.",
	CauseBinary: "This file does not contain readable text. It may be a binary or compressed file saved with the wrong extension. " +
		"Upload the document in a text-based format to get a summary.",
	CauseUnsupported: "Files of type %q cannot be summarized yet. " +
		"Convert the document to PDF, Word or plain text and upload it again.",
	CauseCorrupted: "This document could not be parsed and may be damaged or incomplete. " +
		"Try saving it again from the original application and re-uploading it.",
	CauseNetwork: "The document could not be retrieved or analyzed because of a network problem. " +
		"Please try again in a moment.",
	CauseEmpty: "This document does not appear to contain any text to summarize.",
}

// Apology returns the fixed user-facing explanation for cause. fileType is
// only used by CauseUnsupported.
func Apology(cause Cause, fileType string) string {
	msg, ok := apologies[cause]
	if !ok {
		msg = apologies[CauseCorrupted]
	}
	if cause == CauseUnsupported {
		if fileType == "" {
			fileType = "unknown"
		}
		return fmt.Sprintf(msg, fileType)
	}
	return msg
}
