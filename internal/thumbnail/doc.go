// Package thumbnail generates and caches video preview images.
//
// Previews are 320x180 JPEG frames captured five seconds into each video and
// stored as "<video file name>.jpg" in a flat cache directory. The Pipeline
// drains a FIFO queue with a single consumer goroutine, so at most one
// capture runs at a time; a video that cannot be decoded is logged and
// skipped without stalling the rest of the queue.
//
// Frame capture is abstracted behind FrameSource. FFmpegFrameSource is the
// production implementation; tests substitute a fake.
package thumbnail
