// Package mail sends email through SMTP or Amazon SES behind one interface.
package mail
