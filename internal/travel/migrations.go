package travel

// migration represents a single schema migration.
type migration struct {
	Version int
	Name    string
	SQL     string
}

// migrations is the ordered list of all schema migrations.
var migrations = []migration{
	{
		Version: 1,
		Name:    "create flight tables",
		SQL: `
			CREATE TABLE flights (
				flight_id           INTEGER PRIMARY KEY,
				flight_no           TEXT NOT NULL,
				departure_airport   TEXT NOT NULL,
				arrival_airport     TEXT NOT NULL,
				scheduled_departure TEXT NOT NULL,
				scheduled_arrival   TEXT NOT NULL,
				status              TEXT NOT NULL DEFAULT 'Scheduled'
			);

			CREATE INDEX idx_flights_route ON flights (departure_airport, arrival_airport);
			CREATE INDEX idx_flights_departure ON flights (scheduled_departure);

			CREATE TABLE tickets (
				ticket_no    TEXT PRIMARY KEY,
				book_ref     TEXT NOT NULL,
				passenger_id TEXT NOT NULL
			);

			CREATE INDEX idx_tickets_passenger ON tickets (passenger_id);

			CREATE TABLE ticket_flights (
				ticket_no       TEXT NOT NULL REFERENCES tickets(ticket_no) ON DELETE CASCADE,
				flight_id       INTEGER NOT NULL REFERENCES flights(flight_id),
				fare_conditions TEXT NOT NULL DEFAULT 'Economy',
				PRIMARY KEY (ticket_no, flight_id)
			);

			CREATE TABLE boarding_passes (
				ticket_no   TEXT NOT NULL REFERENCES tickets(ticket_no) ON DELETE CASCADE,
				flight_id   INTEGER NOT NULL REFERENCES flights(flight_id),
				boarding_no INTEGER NOT NULL,
				seat_no     TEXT NOT NULL,
				PRIMARY KEY (ticket_no, flight_id)
			);
		`,
	},
	{
		Version: 2,
		Name:    "create hotel, car rental, and excursion tables",
		SQL: `
			CREATE TABLE hotels (
				id            INTEGER PRIMARY KEY,
				name          TEXT NOT NULL,
				location      TEXT NOT NULL,
				price_tier    TEXT NOT NULL,
				checkin_date  TEXT,
				checkout_date TEXT,
				booked        INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE car_rentals (
				id         INTEGER PRIMARY KEY,
				name       TEXT NOT NULL,
				location   TEXT NOT NULL,
				price_tier TEXT NOT NULL,
				start_date TEXT,
				end_date   TEXT,
				booked     INTEGER NOT NULL DEFAULT 0
			);

			CREATE TABLE trip_recommendations (
				id       INTEGER PRIMARY KEY,
				name     TEXT NOT NULL,
				location TEXT NOT NULL,
				keywords TEXT NOT NULL DEFAULT '',
				details  TEXT NOT NULL DEFAULT '',
				booked   INTEGER NOT NULL DEFAULT 0
			);
		`,
	},
	{
		Version: 3,
		Name:    "create policies with FTS5",
		SQL: `
			CREATE TABLE policies (
				id      INTEGER PRIMARY KEY,
				title   TEXT NOT NULL,
				content TEXT NOT NULL
			);

			CREATE VIRTUAL TABLE policies_fts USING fts5(
				title,
				content,
				content='policies',
				content_rowid='id'
			);

			CREATE TRIGGER policies_ai AFTER INSERT ON policies BEGIN
				INSERT INTO policies_fts(rowid, title, content)
				VALUES (new.id, new.title, new.content);
			END;

			CREATE TRIGGER policies_ad AFTER DELETE ON policies BEGIN
				INSERT INTO policies_fts(policies_fts, rowid, title, content)
				VALUES ('delete', old.id, old.title, old.content);
			END;

			CREATE TRIGGER policies_au AFTER UPDATE ON policies BEGIN
				INSERT INTO policies_fts(policies_fts, rowid, title, content)
				VALUES ('delete', old.id, old.title, old.content);
				INSERT INTO policies_fts(rowid, title, content)
				VALUES (new.id, new.title, new.content);
			END;
		`,
	},
	{
		Version: 4,
		Name:    "create checkpoints",
		SQL: `
			CREATE TABLE checkpoints (
				thread_id  TEXT PRIMARY KEY,
				state      BLOB NOT NULL,
				updated_at TEXT NOT NULL DEFAULT (datetime('now'))
			);
		`,
	},
	{
		Version: 5,
		Name:    "seed demo data",
		SQL: `
			INSERT INTO flights (flight_id, flight_no, departure_airport, arrival_airport, scheduled_departure, scheduled_arrival) VALUES
				(19250, 'LX0112', 'CDG', 'BSL', datetime('now', '+2 hours'), datetime('now', '+3 hours')),
				(19251, 'LX0114', 'CDG', 'BSL', datetime('now', '+2 days'), datetime('now', '+2 days', '+1 hours')),
				(19252, 'LX0116', 'CDG', 'BSL', datetime('now', '+5 days'), datetime('now', '+5 days', '+1 hours')),
				(19303, 'LX1838', 'BSL', 'ZRH', datetime('now', '+3 days'), datetime('now', '+3 days', '+50 minutes')),
				(19304, 'LX0720', 'ZRH', 'VIE', datetime('now', '+4 days'), datetime('now', '+4 days', '+80 minutes'));

			INSERT INTO tickets (ticket_no, book_ref, passenger_id) VALUES
				('7240005432906569', '06B046', '3442 587242'),
				('7240005432906570', '06B047', '8149 604011');

			INSERT INTO ticket_flights (ticket_no, flight_id, fare_conditions) VALUES
				('7240005432906569', 19250, 'Economy'),
				('7240005432906570', 19303, 'Business');

			INSERT INTO boarding_passes (ticket_no, flight_id, boarding_no, seat_no) VALUES
				('7240005432906569', 19250, 12, '18C');

			INSERT INTO hotels (id, name, location, price_tier, checkin_date, checkout_date) VALUES
				(1, 'Hilton Basel', 'Basel', 'Luxury', '2026-04-22', '2026-04-20'),
				(2, 'Marriott Zurich', 'Zurich', 'Upscale', '2026-04-14', '2026-04-21'),
				(3, 'Hyatt Regency Basel', 'Basel', 'Upper Upscale', '2026-04-02', '2026-04-20'),
				(4, 'Radisson Blu Lucerne', 'Lucerne', 'Midscale', '2026-04-24', '2026-04-05'),
				(5, 'Best Western Bern', 'Bern', 'Upper Midscale', '2026-04-23', '2026-04-01');

			INSERT INTO car_rentals (id, name, location, price_tier, start_date, end_date) VALUES
				(1, 'Europcar', 'Basel', 'Economy', '2026-04-14', '2026-04-11'),
				(2, 'Avis', 'Basel', 'Luxury', '2026-04-10', '2026-04-20'),
				(3, 'Hertz', 'Zurich', 'Midsize', '2026-04-10', '2026-04-07'),
				(4, 'Sixt', 'Bern', 'SUV', '2026-04-20', '2026-04-26');

			INSERT INTO trip_recommendations (id, name, location, keywords, details) VALUES
				(1, 'Basel Minster', 'Basel', 'landmark, history', 'Gothic cathedral overlooking the Rhine with panoramic tower views.'),
				(2, 'Kunstmuseum Basel', 'Basel', 'art, museum', 'One of the oldest public art collections in the world.'),
				(3, 'Rhine Swimming', 'Basel', 'activity, swimming, outdoors', 'Float down the Rhine with a waterproof Wickelfisch bag.'),
				(4, 'Lucerne Day Trip', 'Lucerne', 'day trip, scenery, lake', 'Chapel Bridge, old town, and a lake cruise under Mount Pilatus.');

			INSERT INTO policies (id, title, content) VALUES
				(1, 'Flight changes and rebooking',
				 'Tickets may be rebooked onto another flight operated by Swiss Airlines on the same route. Rebooking is only permitted onto flights departing more than 3 hours from the time of the change. Fare differences may apply. Same-day changes within 3 hours of departure are not permitted through customer support.'),
				(2, 'Ticket cancellation',
				 'Refundable tickets may be cancelled up to 24 hours before scheduled departure for a full refund. Non-refundable tickets are eligible for a credit voucher minus a cancellation fee. Cancellations within 24 hours of booking are free of charge for all fare classes.'),
				(3, 'Baggage allowance',
				 'Economy fares include one carry-on bag up to 8 kg. Checked baggage allowance depends on fare conditions: Economy includes one 23 kg bag, Business includes two 32 kg bags. Excess baggage fees apply per additional bag.'),
				(4, 'Hotel and car rental bookings',
				 'Hotel and car rental reservations made through customer support may be modified or cancelled free of charge up to 48 hours before the start date. Later changes are subject to the partner''s own policy.');
		`,
	},
}
