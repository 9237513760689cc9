// Package sms - SMS command composition for GSM relay devices
//
// The relay is operated entirely through SMS text commands sent to its unit
// number. Every command starts with the device's 4-digit password. This
// package only composes the payload strings; delivery goes through the
// platform's native SMS composer.
package sms

import (
	"fmt"
	"strings"

	"github.com/alwitt/gatelink/models"
)

// Builder composes relay command strings for one device password
type Builder struct {
	password string
}

/*
NewBuilder define a command builder bound to a device password

	@param password string - the device's 4-digit command password
	@returns builder instance
*/
func NewBuilder(password string) (Builder, error) {
	if !models.IsRelayPassword(password) {
		return Builder{}, fmt.Errorf("'%s' is not a valid 4-digit relay password", password)
	}
	return Builder{password: password}, nil
}

// RelayOn command switching the relay on (open the gate)
func (b Builder) RelayOn() string {
	return b.password + "CC"
}

// RelayOff command switching the relay off (close the gate)
func (b Builder) RelayOff() string {
	return b.password + "DD"
}

// Status command requesting a relay status report
func (b Builder) Status() string {
	return b.password + "EE"
}

// ChangePassword command replacing the device password
func (b Builder) ChangePassword(newPassword string) (string, error) {
	if !models.IsRelayPassword(newPassword) {
		return "", fmt.Errorf("'%s' is not a valid 4-digit relay password", newPassword)
	}
	return b.password + "P" + newPassword, nil
}

/*
AddUser command storing an authorized caller in a relay memory slot.

An existing slot is overwritten. The access window times are optional, but
must come as a pair.

	@param serial string - 3-digit slot index (001-200)
	@param phone string - the caller's number
	@param startTime string - optional window start, 10-digit YYMMDDHHMM
	@param endTime string - optional window end, 10-digit YYMMDDHHMM
	@returns the command string
*/
func (b Builder) AddUser(serial string, phone string, startTime string, endTime string) (string, error) {
	if !models.IsSerialSlot(serial) {
		return "", fmt.Errorf("'%s' is not a valid relay memory slot", serial)
	}
	if !models.IsPhoneNumber(phone) {
		return "", fmt.Errorf("'%s' is not a valid phone number", phone)
	}

	command := b.password + "A" + serial + "#" + phone + "#"

	if startTime == "" && endTime == "" {
		return command, nil
	}
	if !models.IsScheduleTime(startTime) || !models.IsScheduleTime(endTime) {
		return "", fmt.Errorf("access window times must be paired 10-digit YYMMDDHHMM values")
	}
	return command + startTime + "#" + endTime + "#", nil
}

// RemoveUser command clearing a relay memory slot
func (b Builder) RemoveUser(serial string) (string, error) {
	if !models.IsSerialSlot(serial) {
		return "", fmt.Errorf("'%s' is not a valid relay memory slot", serial)
	}
	return b.password + "A" + serial + "##", nil
}

// AccessMode command selecting the caller access control mode
func (b Builder) AccessMode(mode models.AccessControlENUMType) (string, error) {
	switch mode {
	case models.AccessControlAuthorizedOnly:
		return b.password + "AUT#", nil
	case models.AccessControlAllowAll:
		return b.password + "ALL#", nil
	}
	return "", fmt.Errorf("'%s' is not a known access control mode", mode)
}

// LatchTime command setting the relay latch duration
func (b Builder) LatchTime(latchTime string) (string, error) {
	if !models.IsLatchTime(latchTime) {
		return "", fmt.Errorf("'%s' is not a valid 3-digit latch time", latchTime)
	}
	return b.password + "GOT" + latchTime + "#", nil
}

// Mask hide the builder's password within a command string, for log details
func (b Builder) Mask(command string) string {
	return MaskCommand(command, b.password)
}

/*
MaskCommand hide a device password within a command string.

Activity log details must never carry the password in plaintext; callers run
command payloads through this before logging them.

	@param command string - the command payload
	@param password string - the password to hide
	@returns the masked payload
*/
func MaskCommand(command string, password string) string {
	if password == "" {
		return command
	}
	return strings.ReplaceAll(command, password, "****")
}
