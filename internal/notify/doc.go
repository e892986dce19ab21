// Package notify delivers transactional email.
//
// Postmark is used when server and account tokens are configured; otherwise
// LogSender records the message in the application log so local setups can
// exercise the share-by-email flow without an email provider.
package notify
