// Ticketbridge - Helpdesk Ticket to Work Board Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/ticketbridge

/*
Package models defines the records exchanged with the ticketing and board
services.

Key Components:

  - SourceTicket: one helpdesk ticket, read-only to this system
  - TicketBoard: a saved ticket view that tickets are listed through
  - Item: one board row with its column values indexed by column id
  - Column: a board column definition, including tag settings
  - ColumnValues: column id to value map written by creates and updates

Wire quirks are absorbed here so the rest of the code sees plain values:
ticket create times may arrive as floats or null (UnixTime), attribute values
keep their decoded JSON type (FormatScalar renders them), and board items
arrive with column values as a list that UnmarshalJSON indexes once.

Thread Safety:

Values are plain data. An Item's column index is built on construction and
only read afterwards.
*/
package models
