// Package modem drives a SIM800 series GSM/GPRS modem with AT commands
// over a serial link.
package modem

// Commands are written as "CMD\r\n". With echo enabled (the modem default,
// ATE1) the echoed command is skipped before the response is collected.
// A response ends on a final result code (OK, ERROR, +CME ERROR, ...) or
// when the link stays idle for Modem.Timeout.
//
// References:
//   SIM800 Series AT Command Manual V1.09
//   SIM800 Series TCP/IP Application Note V1.03
