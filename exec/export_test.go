package exec

// RedactArgs exposes argument redaction to tests.
var RedactArgs = redactArgs
