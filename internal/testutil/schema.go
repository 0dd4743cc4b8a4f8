package testutil

// StarSchemaDDL creates the five target tables in SQLite.
const StarSchemaDDL = `
CREATE TABLE songs (song_id TEXT PRIMARY KEY, title TEXT NOT NULL, artist_id TEXT NOT NULL, year INTEGER, duration REAL NOT NULL);
CREATE TABLE artists (artist_id TEXT PRIMARY KEY, name TEXT NOT NULL, location TEXT, latitude REAL, longitude REAL);
CREATE TABLE "time" (start_time TIMESTAMP PRIMARY KEY, hour INTEGER, day INTEGER, week INTEGER, month TEXT, year INTEGER, weekday TEXT);
CREATE TABLE users (user_id TEXT PRIMARY KEY, first_name TEXT, last_name TEXT, gender TEXT, level TEXT NOT NULL);
CREATE TABLE songplays (songplay_id INTEGER PRIMARY KEY AUTOINCREMENT, start_time TIMESTAMP NOT NULL, user_id TEXT NOT NULL, level TEXT NOT NULL, song_id TEXT, artist_id TEXT, session_id INTEGER NOT NULL, location TEXT, user_agent TEXT);
`
