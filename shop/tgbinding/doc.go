// Package tgbinding connects the conversation engine to telebot: it decodes
// updates into events, renders keyboards and implements the outbound transport.
package tgbinding
