// Package datalake builds the song play analytics lake: a star schema of one
// fact table (songplays) and four dimension tables (users, songs, artists,
// time) derived from a song catalog and a user activity log, both stored as
// line separated JSON in object storage, and written back as Parquet.
//
// A run is a fixed, linear sequence of stages. Each stage consumes the output
// of the previous ones and nothing is persisted between them.
//
// 1. Extract
//
//    A datalake.Source hands out raw records one at a time. Sources know how
//    to talk to the system holding the data (S3, local files) and how to
//    decode it, but they do not interpret it. ReadSongCatalog and
//    ReadEventLog turn those raw records into SongRecord and EventRecord
//    values, accepting the handful of spellings the upstream producers use
//    for the same field.
//
// 2. Dimensions
//
//    BuildSongs, BuildArtists, BuildUsers and BuildTime project the extracted
//    records into dimension rows and deduplicate them by key through a
//    KeySet. Tie-breaks are deterministic: input order is object key order,
//    then record order within an object. Songs and artists keep the first
//    record seen, users keep the latest by timestamp.
//
// 3. Facts
//
//    BuildSongplays keeps the NextSong events, resolves song and artist ids
//    with a left join on (title, artist name, duration) against the catalog,
//    and numbers the rows with a Nexter.
//
// 4. Sink
//
//    WriteTable writes each table as Parquet to a Sink, replacing whatever the
//    previous run left under the table's prefix. songplays and time are
//    partitioned by year and month.
//
// Pipeline ties the stages together; the etl package configures a Pipeline
// from command line flags, environment and config file.
package datalake
