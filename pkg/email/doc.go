// Package email delivers single HTML messages through a transactional
// provider.
//
// Three Sender implementations exist: Postmark (github.com/mrz1836/postmark),
// Amazon SES (aws-sdk-go-v2/service/ses) and a development sender that writes
// each message to disk. New picks one from Config.Provider. Every Send
// returns the provider's message id.
package email
